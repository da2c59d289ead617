package es

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"

	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/storage"
)

const maxCachedRuns = 200

// scoreRun is one cached scoring invocation: the scores it produced for a
// given universe and window size. Repeated runs build the rolling baseline
// the promoter cuts against.
type scoreRun struct {
	ID       string    `json:"id"`
	Universe string    `json:"universe"`
	Hours    int       `json:"hours"`
	Scores   []float64 `json:"scores"`
	CachedAt time.Time `json:"cached_at"`
}

func (s *Store) SaveRun(ctx context.Context, universe string, windowHours int, scores []float64) error {
	run := scoreRun{
		ID:       uuid.New().String(),
		Universe: universe,
		Hours:    windowHours,
		Scores:   scores,
		CachedAt: time.Now().UTC(),
	}

	_, err := s.client.Index(s.scoreCacheIndex()).
		Id(run.ID).
		Document(run).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache score run: %w", err)
	}
	return nil
}

// CachedScores flattens the scores of every cached run matching the
// universe and window size, newest runs first.
func (s *Store) CachedScores(ctx context.Context, universe string, windowHours int) ([]float64, error) {
	hours := float64(windowHours)

	res, err := s.client.Search().
		Index(s.scoreCacheIndex()).
		Size(maxCachedRuns).
		Query(&types.Query{
			Bool: &types.BoolQuery{
				Must: []types.Query{
					{Term: map[string]types.TermQuery{"universe": {Value: universe}}},
					{Term: map[string]types.TermQuery{"hours": {Value: hours}}},
				},
			},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search score cache: %w", err)
	}

	var scores []float64
	for _, hit := range res.Hits.Hits {
		var run scoreRun
		if err := json.Unmarshal(hit.Source_, &run); err != nil {
			continue
		}
		scores = append(scores, run.Scores...)
	}
	return scores, nil
}

// topLink is a promoted link as stored in the durable top-content set.
type topLink struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Score      float64   `json:"score"`
	FirstShare time.Time `json:"first_share"`
	PromotedAt time.Time `json:"promoted_at"`
}

// Insert adds a link to the top-content set if absent. The create
// operation is the store's insert-if-absent primitive; a version conflict
// means the link was promoted before.
func (s *Store) Insert(ctx context.Context, universe string, link *domain.ScoredLink) (bool, error) {
	doc := topLink{
		URL:        link.URL,
		Score:      link.Score,
		FirstShare: link.FirstShare,
		PromotedAt: time.Now().UTC(),
	}
	if link.Article != nil {
		doc.Title = link.Article.Title
		doc.Provider = link.Article.Provider
	}

	_, err := s.client.Create(s.topContentIndex(universe), link.URL).
		Document(doc).
		Do(ctx)
	if err != nil {
		if isConflict(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert top link %s: %w", link.URL, err)
	}
	return true, nil
}

var _ storage.ScoreCache = (*Store)(nil)
var _ storage.TopContent = (*Store)(nil)
