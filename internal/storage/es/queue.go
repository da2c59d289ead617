package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/storage"
)

func (s *Store) Enqueue(ctx context.Context, universe string, post *domain.RawPost) error {
	if post.ID == "" {
		return apperr.NewValidation("raw post has no id")
	}

	_, err := s.client.Index(s.queueIndex(universe)).
		Id(post.ID).
		Document(post).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to enqueue post %s: %w", post.ID, err)
	}
	return nil
}

// DequeueOldest returns the oldest queued post not in exclude. The post
// stays queued until Delete; that window is what makes delivery
// at-least-once.
func (s *Store) DequeueOldest(ctx context.Context, universe string, exclude []string) (*domain.RawPost, error) {
	asc := sortorder.Asc

	req := s.client.Search().
		Index(s.queueIndex(universe)).
		Size(1).
		Sort(&types.SortOptions{
			SortOptions: map[string]types.FieldSort{
				"created_at": {Order: &asc},
			},
		})

	if len(exclude) > 0 {
		req = req.Query(&types.Query{
			Bool: &types.BoolQuery{
				MustNot: []types.Query{
					{Ids: &types.IdsQuery{Values: exclude}},
				},
			},
		})
	}

	res, err := req.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search queue: %w", err)
	}
	if len(res.Hits.Hits) == 0 {
		return nil, apperr.ErrQueueEmpty
	}

	var post domain.RawPost
	if err := json.Unmarshal(res.Hits.Hits[0].Source_, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queued post: %w", err)
	}
	return &post, nil
}

func (s *Store) Delete(ctx context.Context, universe, id string) error {
	_, err := s.client.Delete(s.queueIndex(universe), id).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete queued post %s: %w", id, err)
	}
	return nil
}

func (s *Store) LatestQueued(ctx context.Context, universe string) (*domain.RawPost, error) {
	desc := sortorder.Desc

	res, err := s.client.Search().
		Index(s.queueIndex(universe)).
		Size(1).
		Sort(&types.SortOptions{
			SortOptions: map[string]types.FieldSort{
				"created_at": {Order: &desc},
			},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search queue: %w", err)
	}
	if len(res.Hits.Hits) == 0 {
		return nil, apperr.ErrQueueEmpty
	}

	var post domain.RawPost
	if err := json.Unmarshal(res.Hits.Hits[0].Source_, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queued post: %w", err)
	}

	slog.Debug("latest queued post", "universe", universe, "id", post.ID)
	return &post, nil
}

var _ storage.Queue = (*Store)(nil)
