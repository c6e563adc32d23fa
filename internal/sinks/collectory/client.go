// Package collectory talks to the catalog's data resource web service.
package collectory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mkoziy/gbif-sync/internal/models"
	"github.com/mkoziy/gbif-sync/internal/ratelimit"
	"github.com/mkoziy/gbif-sync/internal/syncerr"
)

const (
	serviceName      = "collectory"
	resourcePath     = "/ws/dataResource"
	userAgent        = "gbif-sync/1.0"
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 4096
)

// Client reads and writes catalog data resources.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	baseURL    string
	apiKey     string
	timeout    time.Duration
}

// NewClient creates a new catalog client. apiKey may be empty.
func NewClient(limiter ratelimit.Limiter, baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
	}
}

// Lookup returns every resource whose guid equals key.
func (c *Client) Lookup(ctx context.Context, key string) ([]models.DataResource, int, error) {
	params := url.Values{}
	params.Set("guid", key)

	var result []models.DataResource
	status, err := c.do(ctx, http.MethodGet, resourcePath+"?"+params.Encode(), nil, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, status, fmt.Errorf("lookup %s: %w", key, err)
	}
	return result, status, nil
}

// Create posts a new resource and returns it with the uid the catalog assigned.
func (c *Client) Create(ctx context.Context, payload *models.DataResource) (*models.DataResource, int, error) {
	var created *models.DataResource
	status, err := c.do(ctx, http.MethodPost, resourcePath, payload, func(resp *http.Response) error {
		r, err := decodeResource(resp)
		if err != nil {
			return err
		}
		if r.UID == "" {
			r.UID = uidFromLocation(resp.Header.Get("Location"))
		}
		if r.UID == "" {
			return fmt.Errorf("response carries no uid")
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, status, fmt.Errorf("create %s: %w", payload.GUID, err)
	}
	return created, status, nil
}

// Update replaces the resource identified by uid.
func (c *Client) Update(ctx context.Context, uid string, payload *models.DataResource) (*models.DataResource, int, error) {
	var updated *models.DataResource
	status, err := c.do(ctx, http.MethodPut, resourcePath+"/"+url.PathEscape(uid), payload, func(resp *http.Response) error {
		r, err := decodeResource(resp)
		if err != nil {
			return err
		}
		if r.UID == "" {
			r.UID = uid
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, status, fmt.Errorf("update %s: %w", uid, err)
	}
	return updated, status, nil
}

func (c *Client) do(ctx context.Context, method, p string, body any, decode func(*http.Response) error) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, syncerr.Transport("rate limit wait", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+p, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", c.apiKey)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, syncerr.Transport("execute request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return resp.StatusCode, syncerr.NewStatusError(serviceName, resp.StatusCode, raw)
	}

	if err := decode(resp); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w: %w", syncerr.ErrUpstream, err)
	}
	return resp.StatusCode, nil
}

// decodeResource reads a single resource; an empty body yields an empty record.
func decodeResource(resp *http.Response) (*models.DataResource, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	r := new(models.DataResource)
	if len(bytes.TrimSpace(raw)) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, r); err != nil {
		return nil, err
	}
	return r, nil
}

func uidFromLocation(location string) string {
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
