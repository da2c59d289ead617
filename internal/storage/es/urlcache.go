package es

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emberwatch/emberwatch/internal/storage"
)

// cachedURL is one resolution record in the shared url-cache index,
// keyed by the as-seen URL. A record is rewritten at most once, when
// extraction replaces the redirect target with the page's declared
// canonical.
type cachedURL struct {
	URL      string `json:"url"`
	Resolved string `json:"resolved"`
}

func (s *Store) GetResolved(ctx context.Context, url string) (string, bool, error) {
	res, err := s.client.Get(s.urlCacheIndex(), url).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached url: %w", err)
	}
	if !res.Found {
		return "", false, nil
	}

	var entry cachedURL
	if err := json.Unmarshal(res.Source_, &entry); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal cached url: %w", err)
	}
	return entry.Resolved, true, nil
}

func (s *Store) SetResolved(ctx context.Context, url, resolved string) error {
	_, err := s.client.Index(s.urlCacheIndex()).
		Id(url).
		Document(cachedURL{URL: url, Resolved: resolved}).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache url resolution: %w", err)
	}
	return nil
}

var _ storage.URLStore = (*Store)(nil)
