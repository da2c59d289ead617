// Package es implements the storage contract on Elasticsearch using the
// typed client. One Store owns one client; universes share the client but
// get their own share/article/user/queue indices. The URL cache and score
// cache are cross-universe.
package es

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
)

type ClientConfig struct {
	Addresses   []string
	Username    string
	Password    string
	IndexPrefix string
}

const defaultIndexPrefix = "emberwatch"

func newClient(config ClientConfig) (*elasticsearch.TypedClient, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewTypedClient(cfg)

	return client, err
}

// Store implements every storage interface the pipeline consumes.
type Store struct {
	client *elasticsearch.TypedClient
	prefix string
}

func NewStore(config ClientConfig) (*Store, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	prefix := config.IndexPrefix
	if prefix == "" {
		prefix = defaultIndexPrefix
	}

	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) queueIndex(universe string) string {
	return fmt.Sprintf("%s-%s-rawposts", s.prefix, universe)
}

func (s *Store) shareIndex(universe string) string {
	return fmt.Sprintf("%s-%s-shares", s.prefix, universe)
}

func (s *Store) contentIndex(universe string) string {
	return fmt.Sprintf("%s-%s-content", s.prefix, universe)
}

func (s *Store) userIndex(universe string) string {
	return fmt.Sprintf("%s-%s-users", s.prefix, universe)
}

func (s *Store) topContentIndex(universe string) string {
	return fmt.Sprintf("%s-%s-top-content", s.prefix, universe)
}

// Shared across universes: resolutions and score baselines are
// universe-independent data.
func (s *Store) urlCacheIndex() string {
	return fmt.Sprintf("%s-url-cache", s.prefix)
}

func (s *Store) scoreCacheIndex() string {
	return fmt.Sprintf("%s-score-cache", s.prefix)
}
