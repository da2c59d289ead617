package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Meta is the structured metadata a page declares about itself: meta tags
// (including the twitter:* card and og:* open-graph namespaces), the
// canonical link and the favicon. Structured data is author-supplied and
// less noisy than anything scraped out of the body, so it outranks the
// heuristics everywhere both exist.
type Meta struct {
	values    map[string]string
	Canonical string
	Favicon   string
}

// Get returns the content of a meta tag by its property/name key.
func (m *Meta) Get(key string) string {
	return m.values[key]
}

// First returns the first non-empty value among the given keys.
func (m *Meta) First(keys ...string) string {
	for _, k := range keys {
		if v := m.values[k]; v != "" {
			return v
		}
	}
	return ""
}

// parseMeta collects every meta tag keyed by property (falling back to
// name), valued by content (falling back to value), plus the
// rel=canonical and favicon links.
func parseMeta(doc *html.Node) *Meta {
	m := &Meta{values: make(map[string]string)}

	walk(doc, func(n *html.Node) bool {
		switch {
		case isElement(n, "meta"):
			key := attr(n, "property")
			if key == "" {
				key = attr(n, "name")
			}
			value := attr(n, "content")
			if value == "" {
				value = attr(n, "value")
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			if key == "" || value == "" {
				return true
			}
			if _, seen := m.values[key]; !seen {
				m.values[key] = value
			}
		case isElement(n, "link"):
			rel := strings.ToLower(attr(n, "rel"))
			href := strings.TrimSpace(attr(n, "href"))
			if href == "" {
				return true
			}
			if rel == "canonical" && m.Canonical == "" {
				m.Canonical = href
			}
			if strings.Contains(rel, "icon") && m.Favicon == "" {
				m.Favicon = href
			}
		}
		return true
	})
	return m
}

// Tags aggregates the page's topic labels: og:tag (comma-separated),
// og:section, article:tag and the keywords meta, deduplicated with
// first-seen order preserved.
func (m *Meta) Tags() []string {
	var candidates []string
	for _, v := range []string{m.Get("og:tag"), m.Get("article:tag"), m.Get("keywords"), m.Get("news_keywords")} {
		candidates = append(candidates, strings.Split(v, ",")...)
	}
	candidates = append(candidates, m.Get("og:section"), m.Get("article:section"))

	seen := make(map[string]bool)
	var tags []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		tags = append(tags, c)
	}
	return tags
}
