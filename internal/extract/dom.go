package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func cleanWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// wordCount splits on whitespace. The density heuristic and the paragraph
// filters both use this definition; mixing word-count definitions skews
// the density comparison.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

func isElement(n *html.Node, name string) bool {
	return n.Type == html.ElementNode && n.Data == name
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and all its descendants in document order. Returning
// false from fn stops the traversal.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// findAll returns every descendant element whose tag is in names, in
// document order.
func findAll(n *html.Node, names ...string) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) bool {
		for _, name := range names {
			if isElement(c, name) {
				out = append(out, c)
				break
			}
		}
		return true
	})
	return out
}

func findFirst(n *html.Node, names ...string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		for _, name := range names {
			if isElement(c, name) {
				found = c
				return false
			}
		}
		return true
	})
	return found
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteString(" ")
		}
		return true
	})
	return cleanWhitespace(sb.String())
}

// linkDensity is the fraction of a node's words that sit inside hyperlink
// children. A node with no words has density 0.
func linkDensity(n *html.Node) float64 {
	total := wordCount(textContent(n))
	if total == 0 {
		return 0
	}
	linked := 0
	for _, a := range findAll(n, "a") {
		linked += wordCount(textContent(a))
	}
	return float64(linked) / float64(total)
}

// classContains reports whether the node's class or rel attribute
// contains the given substring.
func classContains(n *html.Node, substr string) bool {
	return strings.Contains(attr(n, "class"), substr) ||
		strings.Contains(attr(n, "rel"), substr) ||
		strings.Contains(attr(n, "itemprop"), substr)
}

// elementByID returns the element with the given id, if any.
func elementByID(n *html.Node, id string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && attr(c, "id") == id {
			found = c
			return false
		}
		return true
	})
	return found
}
