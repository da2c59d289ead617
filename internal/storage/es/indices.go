package es

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// EnsureIndexes creates every index a universe needs, plus the shared
// caches, with explicit mappings. Existing indices are left untouched.
func (s *Store) EnsureIndexes(ctx context.Context, universe string) error {
	keyword := types.NewKeywordProperty()

	indices := []struct {
		name    string
		mapping types.TypeMapping
	}{
		{
			name: s.queueIndex(universe),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"id":         keyword,
					"user_id":    keyword,
					"created_at": types.NewDateProperty(),
				},
			},
		},
		{
			name: s.shareIndex(universe),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"id":          keyword,
					"user_id":     keyword,
					"content_url": keyword,
					"provider":    keyword,
					"created":     types.NewDateProperty(),
					"text":        types.NewTextProperty(),
				},
			},
		},
		{
			name: s.contentIndex(universe),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"url":      keyword,
					"provider": keyword,
					"title":    textWithKeyword(),
					"text":     types.NewTextProperty(),
					"tags":     keyword,
				},
			},
		},
		{
			name: s.userIndex(universe),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"id":          keyword,
					"screen_name": keyword,
					"weight":      types.NewFloatNumberProperty(),
				},
			},
		},
		{
			name: s.topContentIndex(universe),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"url":         keyword,
					"first_share": types.NewDateProperty(),
					"score":       types.NewFloatNumberProperty(),
				},
			},
		},
		{
			name: s.urlCacheIndex(),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"url":      keyword,
					"resolved": keyword,
				},
			},
		},
		{
			name: s.scoreCacheIndex(),
			mapping: types.TypeMapping{
				Properties: map[string]types.Property{
					"universe":  keyword,
					"hours":     types.NewIntegerNumberProperty(),
					"scores":    types.NewFloatNumberProperty(),
					"cached_at": types.NewDateProperty(),
				},
			},
		},
	}

	for _, idx := range indices {
		if err := s.ensureIndex(ctx, idx.name, idx.mapping); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureIndex(ctx context.Context, name string, mapping types.TypeMapping) error {
	exists, err := s.client.Indices.Exists(name).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		return nil
	}

	res, err := s.client.Indices.Create(name).Mappings(&mapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("creation of index %s was not acknowledged", name)
	}

	slog.Info("index created", "index", name)
	return nil
}

func textWithKeyword() types.Property {
	prop := types.NewTextProperty()
	prop.Fields = map[string]types.Property{
		"keyword": types.NewKeywordProperty(),
	}
	return prop
}
