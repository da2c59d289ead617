package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/storage"
)

// SaveArticle upserts an article keyed by canonical URL. The write is
// skipped when a stored record is strictly richer than the incoming one,
// so a degraded re-extraction never clobbers good metadata.
func (s *Store) SaveArticle(ctx context.Context, universe string, a *domain.Article) error {
	if a.URL == "" {
		return apperr.NewValidation("article has no canonical URL")
	}

	existing, err := s.GetArticle(ctx, universe, a.URL)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if keepStored(existing, a) {
		slog.Debug("keeping richer stored article", "url", a.URL)
		return nil
	}

	_, err = s.client.Index(s.contentIndex(universe)).
		Id(a.URL).
		Document(a).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index article %s: %w", a.URL, err)
	}
	return nil
}

func (s *Store) GetArticle(ctx context.Context, universe, url string) (*domain.Article, error) {
	res, err := s.client.Get(s.contentIndex(universe), url).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article %s: %w", url, err)
	}
	if !res.Found {
		return nil, apperr.ErrNotFound
	}

	var a domain.Article
	if err := json.Unmarshal(res.Source_, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal article %s: %w", url, err)
	}
	return &a, nil
}

func (s *Store) GetArticles(ctx context.Context, universe string, urls []string) (map[string]*domain.Article, error) {
	if len(urls) == 0 {
		return map[string]*domain.Article{}, nil
	}

	res, err := s.client.Mget().
		Index(s.contentIndex(universe)).
		Ids(urls...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to multi-get articles: %w", err)
	}

	articles := make(map[string]*domain.Article, len(urls))
	for _, doc := range res.Docs {
		result, ok := doc.(*types.GetResult)
		if !ok || !result.Found {
			continue
		}
		var a domain.Article
		if err := json.Unmarshal(result.Source_, &a); err != nil {
			slog.Warn("skipping undecodable article", "id", result.Id_, "error", err)
			continue
		}
		articles[a.URL] = &a
	}
	return articles, nil
}

// keepStored reports whether an upsert should leave the stored article in
// place: only when it is strictly richer than the incoming one. Equal
// richness means the newer extraction wins.
func keepStored(existing, incoming *domain.Article) bool {
	return existing != nil && existing.Richness() > incoming.Richness()
}

var _ storage.ContentStore = (*Store)(nil)
