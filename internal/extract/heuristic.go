package extract

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Paragraph-level nodes carry the candidate text; headers carry titles.
var (
	contentNodeTypes = []string{"p"}
	headerNodeTypes  = []string{"h1", "h2", "h3"}
)

var (
	attributionRe = regexp.MustCompile(`^\s*[Bb][Yy]\s+(\w+\.? ?){1,4}\.?\s*$`)
	byPrefixRe    = regexp.MustCompile(`^[Bb][Yy] `)
	updatedRe     = regexp.MustCompile(`(?i)(?:last )?updated`)
)

// Paragraph filter bounds: menus and breadcrumbs are link-dense and
// short, body copy is neither.
const (
	maxParagraphLinkDensity = 0.1
	minParagraphWords       = 3
)

// parsedPage holds everything derived from one parsed document. All
// fields are computed once, in a fixed order, from the immutable parsed
// tree; repeated extraction of the same HTML is deterministic.
type parsedPage struct {
	doc         *html.Node
	meta        *Meta
	articleNode *html.Node
	densities   map[*html.Node]float64
}

func parsePage(doc *html.Node) *parsedPage {
	p := &parsedPage{
		doc:       doc,
		meta:      parseMeta(doc),
		densities: make(map[*html.Node]float64),
	}
	p.articleNode = p.findArticleNode()
	return p
}

// findArticleNode scores candidate text nodes by
// words − words × link_density, accumulates scores per parent, and picks
// the parent with the highest total. Ties keep the first parent seen in
// document order.
func (p *parsedPage) findArticleNode() *html.Node {
	root := p.doc
	if article := findFirst(p.doc, "article"); article != nil {
		root = article
	} else if byID := elementByID(p.doc, "article"); byID != nil {
		root = byID
	}

	nodes := findAll(root, contentNodeTypes...)
	if len(nodes) == 0 {
		nodes = findAll(p.doc, contentNodeTypes...)
	}

	scores := make(map[*html.Node]float64)
	var order []*html.Node
	for _, node := range nodes {
		parent := node.Parent
		if parent == nil {
			continue
		}
		if _, ok := scores[parent]; !ok {
			order = append(order, parent)
		}
		density := linkDensity(node)
		wc := float64(wordCount(textContent(node)))
		scores[parent] += wc - wc*density
		p.densities[node] = density
	}

	var best *html.Node
	var bestScore float64
	for _, parent := range order {
		if best == nil || scores[parent] > bestScore {
			best = parent
			bestScore = scores[parent]
		}
	}
	if best == nil {
		return p.doc
	}
	return best
}

// articleText returns the body paragraphs of the selected container.
// A paragraph survives only if it is low in link density, long enough to
// be prose, not an attribution line, not a bare date, and free of the
// vertical bar that marks breadcrumb and menu text.
func (p *parsedPage) articleText() []string {
	var out []string
	for _, n := range findAll(p.articleNode, contentNodeTypes...) {
		t := textContent(n)
		density, scored := p.densities[n]
		if !scored || density >= maxParagraphLinkDensity {
			continue
		}
		if wordCount(t) <= minParagraphWords {
			continue
		}
		if isAttribution(t) || parsesAsDate(t) || strings.Contains(t, "|") {
			continue
		}
		out = append(out, t)
	}
	return out
}

// title takes the first header inside the article node's parent,
// preferring h1 over h2 over h3, then falls back to the first header
// anywhere in the document.
func (p *parsedPage) title() string {
	parent := p.articleNode.Parent
	if parent == nil {
		parent = p.articleNode
	}
	for _, ht := range headerNodeTypes {
		if h := findFirst(parent, ht); h != nil {
			return textContent(h)
		}
	}
	if h := findFirst(p.doc, headerNodeTypes...); h != nil {
		return textContent(h)
	}
	return ""
}

// author scans for an attribution line near the article first, then falls
// back to elements whose class-like attributes mention "author",
// preferring span over anchor over paragraph over div.
func (p *parsedPage) author() string {
	base := p.articleNode.Parent
	if base == nil {
		base = p.articleNode
	}
	for _, scope := range []*html.Node{base, p.doc} {
		if a := authorIn(scope); a != "" {
			return a
		}
	}
	return ""
}

func authorIn(base *html.Node) string {
	var found string
	walk(base, func(n *html.Node) bool {
		if n.Type != html.TextNode {
			return true
		}
		if t := cleanWhitespace(n.Data); isAttribution(t) {
			found = cleanAttribution(t)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, tag := range []string{"span", "a", "p", "div"} {
		for _, n := range findAll(base, tag) {
			if classContains(n, "author") {
				if t := textContent(n); t != "" {
					return cleanAttribution(t)
				}
			}
		}
	}
	return ""
}

// leadImage returns the first image inside the article node, falling back
// to the first image in the document.
func (p *parsedPage) leadImage() string {
	for _, scope := range []*html.Node{p.articleNode, p.doc} {
		for _, img := range findAll(scope, "img") {
			if src := attr(img, "src"); src != "" {
				return src
			}
		}
	}
	return ""
}

// published returns the text of the first <time> element near the
// article, the heuristic of last resort for a publication date.
func (p *parsedPage) published() string {
	parent := p.articleNode.Parent
	if parent == nil {
		parent = p.articleNode
	}
	if t := findFirst(parent, "time"); t != nil {
		if dt := attr(t, "datetime"); dt != "" {
			return dt
		}
		return textContent(t)
	}
	return ""
}

func isAttribution(s string) bool {
	return attributionRe.MatchString(s)
}

func cleanAttribution(s string) string {
	return byPrefixRe.ReplaceAllString(cleanWhitespace(s), "")
}

// Date layouts seen in bylines and dateline paragraphs.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Monday, January 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"2006-01-02",
	"01/02/2006",
	time.RFC1123,
	time.RFC3339,
}

// parsesAsDate reports whether a paragraph is nothing but a timestamp,
// optionally prefixed with "updated".
func parsesAsDate(s string) bool {
	s = cleanWhitespace(updatedRe.ReplaceAllString(s, ""))
	if s == "" {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
