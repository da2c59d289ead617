// Package extract turns a URL, or pre-fetched HTML, into normalized
// article metadata. Structured card and open-graph data wins wherever the
// page supplies it; a DOM-density heuristic recovers title, author and
// body text when it does not.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/emberwatch/emberwatch/internal/domain"
)

const userAgent = "Mozilla/5.0 (iPad; U; CPU OS 3_2_1 like Mac OS X; en-us) AppleWebKit/531.21.10 (KHTML, like Gecko) Mobile/7B405"

const fetchTimeout = 10 * time.Second

// shortenerDomains never appear as canonical URLs: a candidate on one of
// these is a shortened alias, so canonicalization falls through to the
// redirect-resolved network URL instead.
var shortenerDomains = map[string]bool{
	"bit.ly":      true,
	"t.co":        true,
	"goo.gl":      true,
	"ow.ly":       true,
	"tinyurl.com": true,
	"j.mp":        true,
	"is.gd":       true,
	"buff.ly":     true,
	"fb.me":       true,
	"trib.al":     true,
	"dlvr.it":     true,
}

// Renderer fetches a page through a real browser. A handful of domains
// serve an empty shell to plain HTTP clients; those are routed here.
type Renderer interface {
	Render(ctx context.Context, url string) (html string, err error)
}

type Config struct {
	Timeout time.Duration
	// BrowserDomains are fetched via the Renderer instead of raw HTTP.
	BrowserDomains []string
	Renderer       Renderer
	// Client overrides the default pooled HTTP client, mainly for tests.
	Client *http.Client
}

type Extractor struct {
	client         *http.Client
	renderer       Renderer
	browserDomains map[string]bool
}

func New(cfg Config) *Extractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = fetchTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        40,
				MaxIdleConnsPerHost: 20,
			},
		}
	}

	domains := make(map[string]bool, len(cfg.BrowserDomains))
	for _, d := range cfg.BrowserDomains {
		domains[strings.ToLower(d)] = true
	}

	return &Extractor{
		client:         client,
		renderer:       cfg.Renderer,
		browserDomains: domains,
	}
}

// Extract produces article metadata for a URL. When htmlSrc is empty the
// page is fetched; a caller that already holds the HTML passes it in and
// no network access happens. Errors stay scoped to the one URL: the
// consumer logs and skips, never aborts a batch.
func (e *Extractor) Extract(ctx context.Context, rawURL, htmlSrc string) (*domain.Article, error) {
	resolvedURL := rawURL
	if htmlSrc == "" {
		var err error
		htmlSrc, resolvedURL, err = e.fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
	}

	doc, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html for %s: %w", rawURL, err)
	}
	page := parsePage(doc)
	meta := page.meta

	canonical := canonicalURL(meta, resolvedURL)

	article := &domain.Article{
		URL:         canonical,
		OrigURL:     rawURL,
		Provider:    domain.Provider(canonical),
		Title:       firstOf(meta.Get("twitter:title"), meta.Get("og:title"), page.title()),
		Description: firstOf(meta.Get("twitter:description"), meta.Get("og:description"), meta.Get("description")),
		Text:        strings.Join(page.articleText(), "\n\n"),
		Authors:     firstOf(meta.Get("twitter:creator:name"), meta.Get("article:author"), page.author()),
		Tags:        meta.Tags(),
		Image:       leadImage(meta, page, canonical),
		Player:      meta.Get("twitter:player"),
		Favicon:     absolutize(meta.Favicon, canonical),
		Published:   firstOf(meta.Get("article:published_time"), meta.Get("og:article:published_time"), page.published()),
		OGType:      meta.Get("og:type"),
		CardType:    meta.Get("twitter:card"),
		Creator:     strings.TrimPrefix(meta.Get("twitter:creator"), "@"),
		ExtractedAt: time.Now().UTC(),
	}
	if article.Authors == "" {
		article.Authors = article.Creator
	}
	return article, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) (body, resolvedURL string, err error) {
	if u, parseErr := url.Parse(rawURL); parseErr == nil && e.browserDomains[strings.ToLower(strings.TrimPrefix(u.Host, "www."))] {
		// Raw-fetching a browser domain would extract an empty shell;
		// a missing renderer is a configuration error, not a fallback.
		if e.renderer == nil {
			return "", "", fmt.Errorf("domain %s requires a browser renderer, none configured", u.Host)
		}
		rendered, renderErr := e.renderer.Render(ctx, rawURL)
		if renderErr != nil {
			return "", "", fmt.Errorf("browser fetch failed for %s: %w", rawURL, renderErr)
		}
		return rendered, rawURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetch of %s returned status %d", rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}
	return string(raw), resp.Request.URL.String(), nil
}

// canonicalURL picks the canonical identity of the page: card URL, then
// open-graph URL, then the page-declared canonical link, then the
// redirect-resolved network URL. Candidates on shortener domains are
// aliases, not identities, and are skipped.
func canonicalURL(meta *Meta, resolvedURL string) string {
	for _, candidate := range []string{meta.Get("twitter:url"), meta.Get("og:url"), meta.Canonical} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || !strings.HasPrefix(candidate, "http") {
			continue
		}
		if u, err := url.Parse(candidate); err != nil || shortenerDomains[strings.TrimPrefix(strings.ToLower(u.Host), "www.")] {
			continue
		}
		return strings.TrimRight(candidate, "/")
	}
	return strings.TrimRight(resolvedURL, "/")
}

func leadImage(meta *Meta, page *parsedPage, canonical string) domain.Image {
	src := meta.First("twitter:image", "twitter:image:src", "og:image")
	width := meta.First("twitter:image:width", "og:image:width")
	height := meta.First("twitter:image:height", "og:image:height")
	if src == "" {
		src = page.leadImage()
	}

	img := domain.Image{URL: absolutize(src, canonical)}
	if w, err := strconv.Atoi(width); err == nil {
		img.Width = w
	}
	if h, err := strconv.Atoi(height); err == nil {
		img.Height = h
	}
	return img
}

// absolutize resolves a possibly relative URL against the canonical
// page's origin.
func absolutize(raw, canonical string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "http") {
		return raw
	}
	base, err := url.Parse(canonical)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
