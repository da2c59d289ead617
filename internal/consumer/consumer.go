// Package consumer drains the raw-post queue for one universe: resolve
// every embedded link, extract unseen articles, persist the normalized
// share. One consumer per universe; consumers share backing stores but
// never each other's state.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/extract"
	"github.com/emberwatch/emberwatch/internal/storage"
	"github.com/emberwatch/emberwatch/internal/urlcache"
)

const (
	defaultPollInterval = time.Second
	defaultBackoff      = 5 * time.Second
	defaultStaleness    = 300 * time.Second

	// Dequeues exclude this many recently processed ids: the backing
	// store is eventually consistent, and a deleted post can reappear in
	// a search for a moment.
	recentWindow = 5
)

type Consumer struct {
	Universe  string
	Queue     storage.Queue
	Shares    storage.ShareStore
	Content   storage.ContentStore
	Cache     *urlcache.Cache
	Extractor *extract.Extractor

	PollInterval time.Duration
	Backoff      time.Duration
	Staleness    time.Duration

	recent []string
}

// Run polls until ctx is cancelled. Cancellation takes effect at the top
// of the poll cycle, never mid-extraction. No storage failure is fatal:
// the loop backs off and resumes from scratch.
func (c *Consumer) Run(ctx context.Context) error {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	if c.Staleness <= 0 {
		c.Staleness = defaultStaleness
	}

	slog.Info("consumer started", "universe", c.Universe)
	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer stopped", "universe", c.Universe)
			return nil
		default:
		}

		post, err := c.Queue.DequeueOldest(ctx, c.Universe, c.recent)
		if errors.Is(err, apperr.ErrQueueEmpty) {
			c.sleep(ctx, c.PollInterval)
			continue
		}
		if err != nil {
			slog.Warn("dequeue failed, backing off", "universe", c.Universe, "error", err)
			c.sleep(ctx, c.Backoff)
			continue
		}

		if err := c.process(ctx, post); err != nil {
			slog.Warn("processing failed, backing off", "universe", c.Universe, "post", post.ID, "error", err)
			c.sleep(ctx, c.Backoff)
			continue
		}

		if err := c.Queue.Delete(ctx, c.Universe, post.ID); err != nil {
			// The share is already written; reprocessing after this
			// failure only repeats idempotent upserts.
			slog.Warn("failed to delete processed post", "universe", c.Universe, "post", post.ID, "error", err)
		}
		c.markProcessed(post.ID)
	}
}

// process resolves the post's links, extracts any article not seen
// before, and writes the share. Per-URL failures are skipped, never
// escalated; a post with no links still produces a share-less no-op.
func (c *Consumer) process(ctx context.Context, post *domain.RawPost) error {
	if lag := time.Since(post.CreatedAt); lag > c.Staleness {
		slog.Warn("queue is lagging", "universe", c.Universe, "post", post.ID, "lag", lag.Truncate(time.Second))
	}

	if !post.HasLinks() {
		slog.Debug("post has no links, persisting share only", "universe", c.Universe, "post", post.ID)
	}

	// Each goroutine owns one slot, so the writes below are race-free.
	canonicals := make([]string, len(post.URLs))
	var wg sync.WaitGroup
	for i, rawURL := range post.URLs {
		canonical, known := c.Cache.Resolve(ctx, rawURL)
		if canonical == "" {
			continue
		}
		canonicals[i] = canonical

		if known && c.hasArticle(ctx, canonical) {
			continue
		}

		wg.Add(1)
		go func(i int, rawURL, canonical string) {
			defer wg.Done()
			article, err := c.Extractor.Extract(ctx, canonical, "")
			if err != nil {
				slog.Warn("extraction failed, skipping url", "universe", c.Universe, "url", canonical, "error", err)
				return
			}
			if err := c.Content.SaveArticle(ctx, c.Universe, article); err != nil {
				slog.Warn("article save failed", "universe", c.Universe, "url", canonical, "error", err)
				return
			}
			// The article is keyed by the page's declared canonical,
			// which can differ from the redirect target. The share must
			// join against that key, and the cache must map the as-seen
			// URL to it so the next sighting skips extraction.
			if article.URL != canonical {
				canonicals[i] = article.URL
				c.Cache.Put(ctx, rawURL, article.URL)
			}
		}(i, rawURL, canonical)
	}
	wg.Wait()

	var lastCanonical string
	for _, canonical := range canonicals {
		if canonical != "" {
			lastCanonical = canonical
		}
	}
	share := domain.ShareFromPost(post, lastCanonical)
	if err := c.Shares.SaveShare(ctx, c.Universe, share); err != nil {
		return err
	}
	return nil
}

func (c *Consumer) hasArticle(ctx context.Context, url string) bool {
	_, err := c.Content.GetArticle(ctx, c.Universe, url)
	return err == nil
}

func (c *Consumer) markProcessed(id string) {
	c.recent = append(c.recent, id)
	if len(c.recent) > recentWindow {
		c.recent = c.recent[len(c.recent)-recentWindow:]
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
