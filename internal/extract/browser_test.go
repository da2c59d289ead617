package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browserClientAt(url string) *BrowserClient {
	return &BrowserClient{
		baseURL: url,
		token:   "test-token",
		http:    &http.Client{Timeout: time.Second},
	}
}

func TestBrowserClientRender(t *testing.T) {
	var gotAuth, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req renderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotURL = req.URL
		json.NewEncoder(w).Encode(renderResponse{Success: true, Result: "<html><body><h1>Rendered</h1></body></html>"})
	}))
	defer srv.Close()

	html, err := browserClientAt(srv.URL).Render(context.Background(), "http://spa.example/story")
	require.NoError(t, err)
	assert.Contains(t, html, "Rendered")
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "http://spa.example/story", gotURL)
}

func TestBrowserClientRenderFailures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no capacity", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := browserClientAt(srv.URL).Render(context.Background(), "http://spa.example/story")
		assert.ErrorContains(t, err, "status=429")
	})

	t.Run("unsuccessful envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(renderResponse{Success: false, Errors: "render timed out"})
		}))
		defer srv.Close()

		_, err := browserClientAt(srv.URL).Render(context.Background(), "http://spa.example/story")
		assert.ErrorContains(t, err, "render timed out")
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := browserClientAt("http://unused").Render(context.Background(), "not a url")
		assert.Error(t, err)
	})
}
