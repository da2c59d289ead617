package platform

import (
	"context"
	"log/slog"

	"github.com/emberwatch/emberwatch/internal/storage"
)

// Collector drains a source into a universe's raw-post queue.
type Collector struct {
	Universe string
	Source   Source
	Queue    storage.Queue
}

func NewCollector(universe string, src Source, queue storage.Queue) *Collector {
	return &Collector{
		Universe: universe,
		Source:   src,
		Queue:    queue,
	}
}

// Stats summarizes one collection run.
type Stats struct {
	Enqueued int
	Skipped  int
	Failed   int
}

// Collect streams posts from the source and enqueues each valid one.
// Posts without an id cannot be queued idempotently and are skipped;
// per-item source and enqueue errors are counted, logged, and do not stop
// the run. Only context cancellation or a source that fails to open ends
// it early.
func (c *Collector) Collect(ctx context.Context) (Stats, error) {
	var stats Stats

	results, err := c.Source.Posts(ctx)
	if err != nil {
		return stats, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case res, ok := <-results:
			if !ok {
				slog.Info("collection finished",
					"universe", c.Universe,
					"enqueued", stats.Enqueued,
					"skipped", stats.Skipped,
					"failed", stats.Failed)
				return stats, nil
			}
			if res.Err != nil {
				slog.Warn("failed to read post", "universe", c.Universe, "error", res.Err)
				stats.Failed++
				continue
			}
			if res.Post == nil || res.Post.ID == "" {
				slog.Warn("skipping post without id", "universe", c.Universe)
				stats.Skipped++
				continue
			}
			if err := c.Queue.Enqueue(ctx, c.Universe, res.Post); err != nil {
				slog.Warn("failed to enqueue post",
					"universe", c.Universe, "post_id", res.Post.ID, "error", err)
				stats.Failed++
				continue
			}
			stats.Enqueued++
		}
	}
}
