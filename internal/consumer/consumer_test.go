package consumer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/extract"
	"github.com/emberwatch/emberwatch/internal/storage"
	"github.com/emberwatch/emberwatch/internal/urlcache"
	"github.com/emberwatch/emberwatch/pkg/dates"
)

type fakeStore struct {
	mu       sync.Mutex
	queue    []*domain.RawPost
	shares   []*domain.Share
	articles map[string]*domain.Article
	urls     map[string]string

	dequeueErrs int
	excluded    [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		articles: make(map[string]*domain.Article),
		urls:     make(map[string]string),
	}
}

func (f *fakeStore) Enqueue(_ context.Context, _ string, p *domain.RawPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, p)
	return nil
}

func (f *fakeStore) DequeueOldest(_ context.Context, _ string, exclude []string) (*domain.RawPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dequeueErrs > 0 {
		f.dequeueErrs--
		return nil, errors.New("storage unavailable")
	}
	f.excluded = append(f.excluded, append([]string(nil), exclude...))
	for _, p := range f.queue {
		if !contains(exclude, p.ID) {
			return p, nil
		}
	}
	return nil, apperr.ErrQueueEmpty
}

func (f *fakeStore) Delete(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.queue {
		if p.ID == id {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) LatestQueued(context.Context, string) (*domain.RawPost, error) {
	return nil, apperr.ErrQueueEmpty
}

func (f *fakeStore) SaveShare(_ context.Context, _ string, s *domain.Share) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares = append(f.shares, s)
	return nil
}

func (f *fakeStore) LatestShare(context.Context, string) (*domain.Share, error) {
	return nil, apperr.ErrNotFound
}

func (f *fakeStore) AggregateLinks(context.Context, string, dates.Window, int) ([]storage.LinkBucket, error) {
	return nil, nil
}

func (f *fakeStore) DeleteOlderThan(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) SaveArticle(_ context.Context, _ string, a *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles[a.URL] = a
	return nil
}

func (f *fakeStore) GetArticle(_ context.Context, _ string, url string) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.articles[url]; ok {
		return a, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeStore) GetArticles(context.Context, string, []string) (map[string]*domain.Article, error) {
	return nil, nil
}

func (f *fakeStore) GetResolved(_ context.Context, url string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.urls[url]
	return r, ok, nil
}

func (f *fakeStore) SetResolved(_ context.Context, url, resolved string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls[url] = resolved
	return nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func articleServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var gets int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			mu.Lock()
			gets++
			mu.Unlock()
		}
		fmt.Fprintf(w, `<html><body><div>
			<h1>Story %s</h1>
			<p>A paragraph long enough to survive the extraction filters without trouble.</p>
		</div></body></html>`, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv, &gets
}

func newConsumer(store *fakeStore, srv *httptest.Server) *Consumer {
	return &Consumer{
		Universe:     "testverse",
		Queue:        store,
		Shares:       store,
		Content:      store,
		Cache:        urlcache.New(store, srv.Client()),
		Extractor:    extract.New(extract.Config{Client: srv.Client()}),
		PollInterval: 5 * time.Millisecond,
		Backoff:      5 * time.Millisecond,
	}
}

func runUntil(t *testing.T, c *Consumer, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(finished)
	}()

	deadline := time.After(2 * time.Second)
	for !done() {
		select {
		case <-deadline:
			cancel()
			<-finished
			t.Fatal("condition not reached before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-finished
}

func TestProcessPostPersistsShareAndArticles(t *testing.T) {
	srv, _ := articleServer(t)
	store := newFakeStore()
	store.queue = []*domain.RawPost{{
		ID:             "p1",
		UserID:         "u1",
		UserScreenName: "alice",
		Text:           "two good reads",
		CreatedAt:      time.Now().UTC(),
		URLs:           []string{srv.URL + "/first", srv.URL + "/second"},
	}}

	c := newConsumer(store, srv)
	runUntil(t, c, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.shares) == 1 && len(store.queue) == 0
	})

	require.Len(t, store.shares, 1)
	share := store.shares[0]
	assert.Equal(t, "p1", share.ID)
	assert.Equal(t, srv.URL+"/second", share.ContentURL, "share keeps the last resolved link")
	assert.Len(t, store.articles, 2, "each link extracted and stored")
	assert.Contains(t, c.recent, "p1", "processed id enters the exclusion window")
}

func TestNoLinksStillPersistsShare(t *testing.T) {
	srv, gets := articleServer(t)
	store := newFakeStore()
	store.queue = []*domain.RawPost{{
		ID:        "p2",
		UserID:    "u1",
		Text:      "no links here",
		CreatedAt: time.Now().UTC(),
	}}

	c := newConsumer(store, srv)
	runUntil(t, c, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.shares) == 1
	})

	assert.Empty(t, store.shares[0].ContentURL)
	assert.Zero(t, *gets, "nothing fetched for a link-less post")
}

func TestSecondSightingSkipsExtraction(t *testing.T) {
	srv, gets := articleServer(t)
	store := newFakeStore()
	link := srv.URL + "/popular"
	store.queue = []*domain.RawPost{
		{ID: "p3", UserID: "u1", CreatedAt: time.Now().UTC(), URLs: []string{link}},
		{ID: "p4", UserID: "u2", CreatedAt: time.Now().UTC(), URLs: []string{link}},
	}

	c := newConsumer(store, srv)
	runUntil(t, c, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.shares) == 2
	})

	assert.Equal(t, 1, *gets, "already-resolved link is not re-extracted")
}

func TestShareJoinsArticleByDeclaredCanonical(t *testing.T) {
	// The page redirects nowhere, but declares a canonical identity of
	// its own. The article is keyed by it; the share and the URL cache
	// must follow, or ranking would never find the article.
	const declared = "http://news.example/story"
	var gets int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			mu.Lock()
			gets++
			mu.Unlock()
		}
		fmt.Fprintf(w, `<html><head><meta property="og:url" content="%s"/></head><body><div>
			<h1>Story</h1>
			<p>A paragraph long enough to survive the extraction filters without trouble.</p>
		</div></body></html>`, declared)
	}))
	t.Cleanup(srv.Close)

	seen := srv.URL + "/story?utm_source=feed"
	store := newFakeStore()
	store.queue = []*domain.RawPost{
		{ID: "p6", UserID: "u1", CreatedAt: time.Now().UTC(), URLs: []string{seen}},
		{ID: "p7", UserID: "u2", CreatedAt: time.Now().UTC(), URLs: []string{seen}},
	}

	c := newConsumer(store, srv)
	runUntil(t, c, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.shares) == 2
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, declared, store.shares[0].ContentURL, "share keyed by the article's canonical")
	assert.Equal(t, declared, store.shares[1].ContentURL)
	assert.Contains(t, store.articles, declared)
	assert.Equal(t, declared, store.urls[seen], "cache realigned to the article key")
	assert.Equal(t, 1, gets, "second sighting finds the article and skips extraction")
}

func TestDequeueErrorBacksOffAndRecovers(t *testing.T) {
	srv, _ := articleServer(t)
	store := newFakeStore()
	store.dequeueErrs = 2
	store.queue = []*domain.RawPost{{
		ID: "p5", UserID: "u1", CreatedAt: time.Now().UTC(), URLs: []string{srv.URL + "/late"},
	}}

	c := newConsumer(store, srv)
	runUntil(t, c, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.shares) == 1
	})
}

func TestRecentWindowIsBounded(t *testing.T) {
	c := &Consumer{}
	for i := 0; i < 10; i++ {
		c.markProcessed(fmt.Sprintf("id%d", i))
	}
	assert.Len(t, c.recent, recentWindow)
	assert.Equal(t, "id9", c.recent[len(c.recent)-1])
	assert.NotContains(t, c.recent, "id0")
}
