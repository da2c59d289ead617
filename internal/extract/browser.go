package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const browserRenderTimeout = 20 * time.Second

// BrowserClient implements Renderer on the Cloudflare Browser Rendering
// REST API: the page loads in a real headless browser and the rendered
// HTML comes back.
// See: https://developers.cloudflare.com/browser-rendering/rest-api/
type BrowserClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewBrowserClient creates a client from a Cloudflare account ID.
// Endpoint: https://api.cloudflare.com/client/v4/accounts/<ACCOUNT_ID>/browser-rendering/content
func NewBrowserClient(accountID, token string, timeout time.Duration) *BrowserClient {
	if timeout <= 0 {
		timeout = browserRenderTimeout
	}
	baseURL := fmt.Sprintf(
		"https://api.cloudflare.com/client/v4/accounts/%s/browser-rendering/content",
		strings.TrimSpace(accountID))
	return &BrowserClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	URL                  string   `json:"url"`
	RejectRequestPattern []string `json:"rejectRequestPattern,omitempty"`
}

type renderResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Errors  any    `json:"errors"`
}

func (c *BrowserClient) Render(ctx context.Context, pageURL string) (string, error) {
	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	body, _ := json.Marshal(renderRequest{
		URL: pageURL,
		// Stylesheets cost render time and carry no extractable content.
		RejectRequestPattern: []string{`/^.*\.(css)/`},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("browser render failed: status=%d body=%s", resp.StatusCode, string(b))
	}

	var envelope renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", fmt.Errorf("browser render failed: %v", envelope.Errors)
	}
	return envelope.Result, nil
}

var _ Renderer = (*BrowserClient)(nil)
