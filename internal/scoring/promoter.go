package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/pkg/dates"
	"github.com/emberwatch/emberwatch/pkg/utils"
)

// How many standard deviations above the baseline mean a score must sit
// to count as exceptional.
const promotionSigmas = 2

// Candidates examined per promotion attempt.
const promotionDepth = 20

// MaybePromote compares the current ranking against the rolling baseline
// of cached scores for the same window size and promotes at most one
// link: the best-scored one that clears mean + 2σ and has never been
// promoted before. With no baseline yet (cold start), or no link clearing
// the cutoff, it returns nil without error.
func (e *Engine) MaybePromote(ctx context.Context, universe string, window dates.Window) (*domain.ScoredLink, error) {
	baseline, err := e.Cache.CachedScores(ctx, universe, int(window.Hours()))
	if err != nil {
		return nil, fmt.Errorf("failed to load score baseline: %w", err)
	}
	if len(baseline) == 0 {
		slog.Debug("no score baseline yet, declining to promote", "universe", universe)
		return nil, nil
	}

	mean := utils.Mean(baseline)
	stddev := utils.StdDev(baseline)
	cutoff := mean + promotionSigmas*stddev

	links, err := e.Rank(ctx, universe, window, promotionDepth, true)
	if err != nil {
		return nil, err
	}

	for _, link := range links {
		if link.Score < cutoff {
			// Ranking is descending; nothing further can clear it.
			break
		}
		created, err := e.Top.Insert(ctx, universe, link)
		if err != nil {
			return nil, fmt.Errorf("failed to promote %s: %w", link.URL, err)
		}
		if !created {
			continue
		}
		slog.Info("link promoted to top content",
			"universe", universe, "url", link.URL,
			"score", link.Score, "cutoff", utils.RoundDecimal(cutoff, scoreDecimals))
		return link, nil
	}
	return nil, nil
}
