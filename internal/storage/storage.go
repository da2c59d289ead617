// Package storage declares the document-store contract the pipeline
// depends on. The store itself (durable storage, full-text search,
// bucketed aggregation) is an external collaborator; the interfaces here
// name exactly the query and mutation operations the core issues and
// nothing more.
package storage

import (
	"context"
	"time"

	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/pkg/dates"
)

// Queue holds raw posts between collection and processing. Delivery is
// at-least-once: a crash between dequeue and delete causes reprocessing,
// which is safe because share and article writes are idempotent upserts.
type Queue interface {
	Enqueue(ctx context.Context, universe string, post *domain.RawPost) error
	// DequeueOldest returns the oldest queued post whose id is not in
	// exclude, without removing it. Returns apperr.ErrQueueEmpty when no
	// candidate exists.
	DequeueOldest(ctx context.Context, universe string, exclude []string) (*domain.RawPost, error)
	// Delete removes a processed post from the queue.
	Delete(ctx context.Context, universe, id string) error
	// LatestQueued returns the newest queued post, for liveness checks.
	LatestQueued(ctx context.Context, universe string) (*domain.RawPost, error)
}

// ContentStore persists extracted articles keyed by canonical URL.
type ContentStore interface {
	// SaveArticle upserts an article. Last write wins unless the stored
	// record is strictly richer than the incoming one.
	SaveArticle(ctx context.Context, universe string, a *domain.Article) error
	// GetArticle returns apperr.ErrNotFound for unknown URLs.
	GetArticle(ctx context.Context, universe, url string) (*domain.Article, error)
	// GetArticles multi-gets articles by canonical URL; missing URLs are
	// simply absent from the result map.
	GetArticles(ctx context.Context, universe string, urls []string) (map[string]*domain.Article, error)
}

// LinkBucket is one bucket of the share aggregation: a link, how often and
// by how many distinct users it was shared, and its shares oldest-first.
type LinkBucket struct {
	URL         string
	Count       int64
	UniqueUsers int64
	Shares      []domain.Share
}

// ShareStore persists normalized shares and aggregates them for scoring.
type ShareStore interface {
	SaveShare(ctx context.Context, universe string, s *domain.Share) error
	LatestShare(ctx context.Context, universe string) (*domain.Share, error)
	// AggregateLinks buckets shares in the window by canonical URL,
	// dropping links shared fewer than minShares times. Each bucket
	// carries a unique-user count and its shares sorted oldest-first.
	AggregateLinks(ctx context.Context, universe string, window dates.Window, minShares int) ([]LinkBucket, error)
	// DeleteOlderThan removes shares created before cutoff and returns
	// how many were deleted.
	DeleteOlderThan(ctx context.Context, universe string, cutoff time.Time) (int64, error)
}

// URLStore is the durable half of the URL cache, shared across universes.
type URLStore interface {
	// GetResolved returns the cached canonical form of an as-seen URL.
	GetResolved(ctx context.Context, url string) (string, bool, error)
	SetResolved(ctx context.Context, url, resolved string) error
}

// UserStore holds tracked users and their externally-assigned weights.
type UserStore interface {
	// SaveUser upserts a user, keeping existing metadata when the
	// incoming record carries only an id.
	SaveUser(ctx context.Context, universe string, u *domain.User) error
	// UserWeights returns the id to influence-weight mapping. Users
	// missing from the map have left the tracked community.
	UserWeights(ctx context.Context, universe string) (map[string]float64, error)
}

// ScoreCache keeps the scores of past ranking runs per window size. It is
// both a repeated-query optimization and the promoter's rolling baseline.
type ScoreCache interface {
	SaveRun(ctx context.Context, universe string, windowHours int, scores []float64) error
	CachedScores(ctx context.Context, universe string, windowHours int) ([]float64, error)
}

// TopContent is the durable set of links that ever cleared the promotion
// cutoff. Membership is permanent and keyed by canonical URL.
type TopContent interface {
	// Insert adds a link if absent. Returns false when the link was
	// already promoted.
	Insert(ctx context.Context, universe string, link *domain.ScoredLink) (bool, error)
}
