package urlcache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeURLStore struct {
	mu      sync.Mutex
	entries map[string]string
	reads   int
	writes  int
}

func newFakeURLStore() *fakeURLStore {
	return &fakeURLStore{entries: make(map[string]string)}
}

func (f *fakeURLStore) GetResolved(_ context.Context, url string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	r, ok := f.entries[url]
	return r, ok, nil
}

func (f *fakeURLStore) SetResolved(_ context.Context, url, resolved string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.entries[url] = resolved
	return nil
}

func TestResolveFollowsRedirectsAndCaches(t *testing.T) {
	var fetches int
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		http.Redirect(w, r, srv.URL+"/article/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	store := newFakeURLStore()
	cache := New(store, srv.Client())

	canonical, hit := cache.Resolve(context.Background(), srv.URL+"/short")
	require.False(t, hit)
	assert.Equal(t, srv.URL+"/article", canonical, "redirect followed, trailing slash trimmed")
	assert.Equal(t, 1, store.writes, "one cache write per miss")

	// Second sighting: no network fetch, no extra write.
	canonical2, hit2 := cache.Resolve(context.Background(), srv.URL+"/short")
	assert.True(t, hit2)
	assert.Equal(t, canonical, canonical2)
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, store.writes)
}

func TestResolveTooManyRedirectsFallsBack(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	for i := 0; i < 10; i++ {
		next := fmt.Sprintf("/hop%d", i+1)
		mux.HandleFunc(fmt.Sprintf("/hop%d", i), func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, srv.URL+next, http.StatusMovedPermanently)
		})
	}
	mux.HandleFunc("/hop10", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	store := newFakeURLStore()
	cache := New(store, nil)

	// An exhausted hop limit is a failed resolution: the original URL
	// comes back unchanged, never a mid-chain hop.
	origin := srv.URL + "/hop0"
	canonical, hit := cache.Resolve(context.Background(), origin)
	assert.False(t, hit)
	assert.Equal(t, origin, canonical)
	assert.Equal(t, origin, store.entries[origin], "the fallback is what gets cached")
}

func TestPutOverridesResolution(t *testing.T) {
	store := newFakeURLStore()
	store.entries["http://t.co/xyz"] = "http://example.com/story?utm_source=feed"

	cache := New(store, nil)
	canonical, _ := cache.Resolve(context.Background(), "http://t.co/xyz")
	require.Equal(t, "http://example.com/story?utm_source=feed", canonical)

	cache.Put(context.Background(), "http://t.co/xyz", "http://example.com/story/")

	canonical, hit := cache.Resolve(context.Background(), "http://t.co/xyz")
	assert.True(t, hit)
	assert.Equal(t, "http://example.com/story", canonical, "override wins, trailing slash trimmed")
	assert.Equal(t, "http://example.com/story", store.entries["http://t.co/xyz"], "durable store updated too")
}

func TestResolveFallsBackOnNetworkFailure(t *testing.T) {
	store := newFakeURLStore()
	cache := New(store, nil)

	// Unroutable address: the prober fails and the URL resolves to itself.
	url := "http://127.0.0.1:1/nowhere"
	canonical, hit := cache.Resolve(context.Background(), url)
	assert.False(t, hit)
	assert.Equal(t, url, canonical)
	assert.Equal(t, 1, store.writes, "fallback resolution is still cached")
}

func TestResolveReadsThroughDurableStore(t *testing.T) {
	store := newFakeURLStore()
	store.entries["http://t.co/abc"] = "http://example.com/story"

	cache := New(store, nil)
	canonical, hit := cache.Resolve(context.Background(), "http://t.co/abc")
	assert.True(t, hit)
	assert.Equal(t, "http://example.com/story", canonical)

	// Memoized now: the durable store is not read again.
	reads := store.reads
	cache.Resolve(context.Background(), "http://t.co/abc")
	assert.Equal(t, reads, store.reads)
}

func TestResolveConcurrentSameURL(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/p", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	store := newFakeURLStore()
	cache := New(store, srv.Client())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			canonical, _ := cache.Resolve(context.Background(), srv.URL+"/p")
			assert.Equal(t, srv.URL+"/p", canonical)
		}()
	}
	wg.Wait()
}
