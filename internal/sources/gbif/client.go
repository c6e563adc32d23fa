package gbif

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkoziy/gbif-sync/internal/ratelimit"
	"github.com/mkoziy/gbif-sync/internal/syncerr"
)

// DefaultBaseURL is the public GBIF API.
const DefaultBaseURL = "https://api.gbif.org"

const (
	serviceName    = "gbif registry"
	userAgent      = "gbif-sync/1.0"
	defaultTimeout = 30 * time.Second
)

// Client fetches dataset metadata from the GBIF registry.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	baseURL    string
	timeout    time.Duration
}

// NewClient creates a new registry client. A zero timeout uses 30s.
func NewClient(limiter ratelimit.Limiter, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
	}
}

// Fetch retrieves one dataset by key. The returned status is 0 when no
// response was received.
func (c *Client) Fetch(ctx context.Context, key string) (*Dataset, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, syncerr.Transport("rate limit wait", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/v1/dataset/%s", c.baseURL, url.PathEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, syncerr.Transport("execute request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		se := syncerr.NewStatusError(serviceName, resp.StatusCode, body)
		if resp.StatusCode == http.StatusNotFound {
			se.Err = syncerr.ErrNotFound
		}
		return nil, resp.StatusCode, fmt.Errorf("fetch dataset %s: %w", key, se)
	}

	var ds Dataset
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode dataset %s: %w: %w", key, syncerr.ErrUpstream, err)
	}
	return &ds, resp.StatusCode, nil
}
