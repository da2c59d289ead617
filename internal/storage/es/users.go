package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/storage"
)

const maxUniverseUsers = 5000

// SaveUser upserts a tracked user. A bare id record (a follower seen only
// by id) never overwrites a stored record that already carries metadata.
func (s *Store) SaveUser(ctx context.Context, universe string, u *domain.User) error {
	if u.ID == "" {
		return apperr.NewValidation("user has no id")
	}

	existing, err := s.getUser(ctx, universe, u.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if existing != nil && u.ScreenName == "" && existing.ScreenName != "" {
		return nil
	}

	_, err = s.client.Index(s.userIndex(universe)).
		Id(u.ID).
		Document(u).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, universe, id string) (*domain.User, error) {
	res, err := s.client.Get(s.userIndex(universe), id).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	if !res.Found {
		return nil, apperr.ErrNotFound
	}

	var u domain.User
	if err := json.Unmarshal(res.Source_, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", id, err)
	}
	return &u, nil
}

// UserWeights returns the influence-weight mapping for the whole universe.
// The weights are written out-of-band by the community-graph builder;
// users it has dropped simply vanish from the map.
func (s *Store) UserWeights(ctx context.Context, universe string) (map[string]float64, error) {
	res, err := s.client.Search().
		Index(s.userIndex(universe)).
		Size(maxUniverseUsers).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	weights := make(map[string]float64, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var u domain.User
		if err := json.Unmarshal(hit.Source_, &u); err != nil {
			slog.Warn("skipping undecodable user", "error", err)
			continue
		}
		weights[u.ID] = u.Weight
	}
	return weights, nil
}

var _ storage.UserStore = (*Store)(nil)
