// Package scoring ranks a universe's shared links by influence-weighted,
// time-decayed popularity, and promotes statistical outliers into the
// durable top-content set.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/storage"
	"github.com/emberwatch/emberwatch/pkg/dates"
	"github.com/emberwatch/emberwatch/pkg/utils"
)

// A link must be shared at least twice to be worth ranking; a single
// share is noise.
const minShareCount = 2

const scoreDecimals = 4

type Engine struct {
	Shares  storage.ShareStore
	Users   storage.UserStore
	Content storage.ContentStore
	Cache   storage.ScoreCache
	Top     storage.TopContent

	// Now is the clock used for decay; tests pin it.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// NormalizeWeight maps a raw influence weight onto a gentler scale:
// ln(10w) + 1. Weights at or below zero contribute nothing; users missing
// from the mapping have left the tracked community and also contribute
// nothing.
func NormalizeWeight(w float64) float64 {
	if w <= 0 {
		return 0
	}
	return math.Log(w*10) + 1
}

// DecayFactor attenuates a score by how long ago the link first appeared,
// relative to the window: max(0, 1 − ln(h+1)/windowHours). At h=0 the
// factor is 1; it approaches 0 as h approaches the window length, fading
// faster than linear but slower than exponential.
func DecayFactor(hoursSinceFirst, windowHours float64) float64 {
	if hoursSinceFirst < 0 {
		hoursSinceFirst = 0
	}
	f := 1 - math.Log(hoursSinceFirst+1)/windowHours
	if f < 0 {
		return 0
	}
	return f
}

// Rank aggregates the window's shares per canonical URL, scores each link
// by the normalized weights of its distinct sharing users, optionally
// applies time decay, and returns the top quantity links joined against
// their articles. Links whose article has not been extracted yet (a race
// with the consumer) are dropped, not erred. Each run's scores are cached
// as the promotion baseline.
func (e *Engine) Rank(ctx context.Context, universe string, window dates.Window, quantity int, timeDecay bool) ([]*domain.ScoredLink, error) {
	buckets, err := e.Shares.AggregateLinks(ctx, universe, window, minShareCount)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shares: %w", err)
	}

	weights, err := e.Users.UserWeights(ctx, universe)
	if err != nil {
		return nil, fmt.Errorf("failed to load user weights: %w", err)
	}

	now := e.now()
	links := make([]*domain.ScoredLink, 0, len(buckets))
	for _, bucket := range buckets {
		link := e.scoreBucket(bucket, weights, window, now, timeDecay)
		links = append(links, link)
	}

	// Stable: exact ties keep aggregation order, which is acceptable
	// because continuous weights make exact ties statistically rare.
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Score > links[j].Score
	})
	if quantity > 0 && len(links) > quantity {
		links = links[:quantity]
	}

	scores := make([]float64, 0, len(links))
	for i, link := range links {
		link.Rank = i + 1
		link.FirstShared = dates.Since(link.FirstShare, now)
		scores = append(scores, link.Score)
	}

	if len(scores) > 0 {
		if err := e.Cache.SaveRun(ctx, universe, int(window.Hours()), scores); err != nil {
			slog.Warn("failed to cache score run", "universe", universe, "error", err)
		}
	}

	return e.joinArticles(ctx, universe, links)
}

// scoreBucket computes one link's score and its derivation trail. The
// trail lists every contributing user and the running total, so a score
// can be re-derived by hand from the same inputs.
func (e *Engine) scoreBucket(bucket storage.LinkBucket, weights map[string]float64, window dates.Window, now time.Time, timeDecay bool) *domain.ScoredLink {
	link := &domain.ScoredLink{
		URL:    bucket.URL,
		Shares: bucket.Count,
	}

	var influence float64
	counted := make(map[string]bool)
	for _, share := range bucket.Shares {
		if link.FirstShare.IsZero() || share.Created.Before(link.FirstShare) {
			link.FirstShare = share.Created
		}
		if counted[share.UserID] {
			continue
		}
		counted[share.UserID] = true

		contrib := NormalizeWeight(weights[share.UserID])
		influence += contrib
		link.Trail = append(link.Trail, fmt.Sprintf(
			"@%s +%.4f = %.4f", share.UserScreenName, contrib, influence))
	}
	link.Influence = utils.RoundDecimal(influence, scoreDecimals)

	score := influence
	if timeDecay {
		hours := now.Sub(link.FirstShare).Hours()
		factor := DecayFactor(hours, window.Hours())
		score = influence * factor
		link.Trail = append(link.Trail, fmt.Sprintf(
			"decay ×%.4f (%.1fh into %.0fh window) = %.4f", factor, hours, window.Hours(), score))
	}
	link.Score = utils.RoundDecimal(score, scoreDecimals)
	return link
}

func (e *Engine) joinArticles(ctx context.Context, universe string, links []*domain.ScoredLink) ([]*domain.ScoredLink, error) {
	if len(links) == 0 {
		return links, nil
	}

	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	articles, err := e.Content.GetArticles(ctx, universe, urls)
	if err != nil {
		return nil, fmt.Errorf("failed to join articles: %w", err)
	}

	joined := links[:0]
	for _, l := range links {
		article, ok := articles[l.URL]
		if !ok {
			slog.Debug("dropping link without article", "url", l.URL)
			continue
		}
		l.Article = article
		joined = append(joined, l)
	}
	return joined, nil
}
