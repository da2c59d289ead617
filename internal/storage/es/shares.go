package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/some"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/storage"
	"github.com/emberwatch/emberwatch/pkg/dates"
)

// Aggregation fan-out bounds. A universe rarely produces more than a few
// hundred distinct links per day, and per-link shares beyond the first
// hundred do not move a score enough to matter.
const (
	maxLinkBuckets   = 500
	maxSharesPerLink = 100
)

// queryTime renders a time the way date range queries expect it: UTC,
// RFC 3339.
func queryTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *Store) SaveShare(ctx context.Context, universe string, share *domain.Share) error {
	if share.ID == "" {
		return apperr.NewValidation("share has no id")
	}

	_, err := s.client.Index(s.shareIndex(universe)).
		Id(share.ID).
		Document(share).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index share %s: %w", share.ID, err)
	}
	return nil
}

func (s *Store) LatestShare(ctx context.Context, universe string) (*domain.Share, error) {
	desc := sortorder.Desc

	res, err := s.client.Search().
		Index(s.shareIndex(universe)).
		Size(1).
		Sort(&types.SortOptions{
			SortOptions: map[string]types.FieldSort{
				"created": {Order: &desc},
			},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search shares: %w", err)
	}
	if len(res.Hits.Hits) == 0 {
		return nil, apperr.ErrNotFound
	}

	var share domain.Share
	if err := json.Unmarshal(res.Hits.Hits[0].Source_, &share); err != nil {
		return nil, fmt.Errorf("failed to unmarshal share: %w", err)
	}
	return &share, nil
}

// AggregateLinks buckets window shares by canonical URL with a terms
// aggregation, attaching a top-hits sub-aggregation (the shares,
// oldest-first) and a cardinality sub-aggregation (distinct sharing
// users) to each bucket.
func (s *Store) AggregateLinks(ctx context.Context, universe string, window dates.Window, minShares int) ([]storage.LinkBucket, error) {
	asc := sortorder.Asc
	gte := queryTime(window.Start)
	lt := queryTime(window.End)

	res, err := s.client.Search().
		Index(s.shareIndex(universe)).
		Size(0).
		Query(&types.Query{
			Range: map[string]types.RangeQuery{
				"created": types.DateRangeQuery{Gte: &gte, Lt: &lt},
			},
		}).
		Aggregations(map[string]types.Aggregations{
			"links": {
				Terms: &types.TermsAggregation{
					Field:       some.String("content_url"),
					Size:        some.Int(maxLinkBuckets),
					MinDocCount: some.Int(minShares),
				},
				Aggregations: map[string]types.Aggregations{
					"shares": {
						TopHits: &types.TopHitsAggregation{
							Size: some.Int(maxSharesPerLink),
							Sort: []types.SortCombinations{
								&types.SortOptions{
									SortOptions: map[string]types.FieldSort{
										"created": {Order: &asc},
									},
								},
							},
						},
					},
					"unique_users": {
						Cardinality: &types.CardinalityAggregation{
							Field: some.String("user_id"),
						},
					},
				},
			},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shares: %w", err)
	}

	terms, ok := res.Aggregations["links"].(*types.StringTermsAggregate)
	if !ok {
		return nil, fmt.Errorf("unexpected aggregate type %T for links", res.Aggregations["links"])
	}
	rawBuckets, ok := terms.Buckets.([]types.StringTermsBucket)
	if !ok {
		return nil, fmt.Errorf("unexpected bucket shape %T for links", terms.Buckets)
	}

	buckets := make([]storage.LinkBucket, 0, len(rawBuckets))
	for _, b := range rawBuckets {
		url, ok := b.Key.(string)
		if !ok {
			continue
		}
		bucket := storage.LinkBucket{URL: url, Count: b.DocCount}

		if card, ok := b.Aggregations["unique_users"].(*types.CardinalityAggregate); ok {
			bucket.UniqueUsers = card.Value
		}
		hits, ok := b.Aggregations["shares"].(*types.TopHitsAggregate)
		if !ok {
			return nil, fmt.Errorf("missing shares sub-aggregation for %s", url)
		}
		for _, hit := range hits.Hits.Hits {
			var share domain.Share
			if err := json.Unmarshal(hit.Source_, &share); err != nil {
				slog.Warn("skipping undecodable share", "url", url, "error", err)
				continue
			}
			bucket.Shares = append(bucket.Shares, share)
		}
		// The sub-aggregation already sorts oldest-first; keep the
		// guarantee even if a mapping change loses the sort.
		sort.SliceStable(bucket.Shares, func(i, j int) bool {
			return bucket.Shares[i].Created.Before(bucket.Shares[j].Created)
		})

		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func (s *Store) DeleteOlderThan(ctx context.Context, universe string, cutoff time.Time) (int64, error) {
	lt := queryTime(cutoff)

	res, err := s.client.DeleteByQuery(s.shareIndex(universe)).
		Query(&types.Query{
			Range: map[string]types.RangeQuery{
				"created": types.DateRangeQuery{Lt: &lt},
			},
		}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old shares: %w", err)
	}

	var deleted int64
	if res.Deleted != nil {
		deleted = *res.Deleted
	}
	return deleted, nil
}

var _ storage.ShareStore = (*Store)(nil)
