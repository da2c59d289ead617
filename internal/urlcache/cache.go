// Package urlcache memoizes URL to canonical-URL resolutions. The cache
// is load-bearing, not an optimization: it is what guarantees that every
// as-seen form of a link (shortened or not) lands on one canonical
// article key.
package urlcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emberwatch/emberwatch/internal/storage"
)

const (
	resolveTimeout = 7 * time.Second
	maxRedirects   = 5

	// Connections kept per scheme so a tight extraction loop is not
	// paying connection setup per link.
	poolSize = 20
)

// Cache layers an in-process map over the shared durable URL store.
// Concurrent read/insert is safe; last-writer-wins on a race is
// acceptable because every writer maps the same as-seen URL to the same
// canonical once extraction has settled it.
type Cache struct {
	store  storage.URLStore
	client *http.Client

	mu  sync.RWMutex
	mem map[string]string
}

// New builds a cache around the durable store. A nil client gets the
// default HEAD prober with a bounded redirect chain and connection pool.
func New(store storage.URLStore, client *http.Client) *Cache {
	if client == nil {
		client = &http.Client{
			Timeout: resolveTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        2 * poolSize,
				MaxIdleConnsPerHost: poolSize,
			},
			// Exhausting the hop limit is a resolution failure, not a
			// partial answer: the probe falls back to the original URL
			// rather than caching a mid-chain hop.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return &Cache{
		store:  store,
		client: client,
		mem:    make(map[string]string),
	}
}

// Resolve returns the canonical form of an as-seen URL and whether it was
// already known. A hit never touches the network. A miss follows
// redirects with a HEAD request; on any network failure the URL resolves
// to itself. Resolve never fails: the fallback is always usable.
func (c *Cache) Resolve(ctx context.Context, rawURL string) (canonical string, hit bool) {
	c.mu.RLock()
	resolved, ok := c.mem[rawURL]
	c.mu.RUnlock()
	if ok {
		return resolved, true
	}

	resolved, ok, err := c.store.GetResolved(ctx, rawURL)
	if err != nil {
		slog.Warn("url cache read failed", "url", rawURL, "error", err)
	}
	if ok {
		c.remember(rawURL, resolved)
		return resolved, true
	}

	resolved = c.probe(ctx, rawURL)
	resolved = trimTrailingSlash(resolved)

	if err := c.store.SetResolved(ctx, rawURL, resolved); err != nil {
		slog.Warn("url cache write failed", "url", rawURL, "error", err)
	}
	c.remember(rawURL, resolved)
	return resolved, false
}

// Put overrides the cached resolution of an as-seen URL. The consumer
// calls it when extraction learns the page's declared canonical, which
// supersedes the redirect target as the article key.
func (c *Cache) Put(ctx context.Context, rawURL, canonical string) {
	canonical = trimTrailingSlash(canonical)
	if err := c.store.SetResolved(ctx, rawURL, canonical); err != nil {
		slog.Warn("url cache write failed", "url", rawURL, "error", err)
	}
	c.remember(rawURL, canonical)
}

func (c *Cache) remember(rawURL, resolved string) {
	c.mu.Lock()
	c.mem[rawURL] = resolved
	c.mu.Unlock()
}

func (c *Cache) probe(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Debug("url resolution failed, keeping original", "url", rawURL, "error", err)
		}
		return rawURL
	}
	defer resp.Body.Close()

	return resp.Request.URL.String()
}

func trimTrailingSlash(u string) string {
	return strings.TrimRight(u, "/")
}
