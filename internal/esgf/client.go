// Package esgf is a small client for the ESGF federated search API.
package esgf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pcmdi/climwrangle/internal/cache"
)

// Client configuration defaults.
const (
	DefaultNodeURL         = "https://esgf-node.llnl.gov/esg-search/"
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxIdleConns    = 20
	DefaultIdleConnTimeout = 90 * time.Second

	// PageSize is the number of documents requested per search page.
	PageSize = 1000
)

// Sentinel errors for common search failures.
var (
	// ErrNotFound indicates the search returned no matching record.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the index node is rate limiting requests.
	ErrRateLimited = errors.New("rate limited")
)

// Client queries one ESGF index node.
type Client struct {
	baseURL string
	client  *http.Client
	distrib bool
	cache   *cache.Cache
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets the HTTP request timeout. Zero or negative values fall
// back to DefaultRequestTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithDistrib controls whether searches fan out across the federation
// (the default) or stay on the local index node.
func WithDistrib(distrib bool) ClientOption {
	return func(c *Client) {
		c.distrib = distrib
	}
}

// WithCache serves repeated requests from an on-disk response cache.
func WithCache(rc *cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = rc
	}
}

// NewClient creates a client for the index node at baseURL. An empty
// baseURL selects DefaultNodeURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultNodeURL
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: DefaultRequestTimeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    DefaultMaxIdleConns,
				IdleConnTimeout: DefaultIdleConnTimeout,
			},
		},
		distrib: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the index node URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// search runs one query against the search endpoint.
func (c *Client) search(ctx context.Context, values url.Values, out any) error {
	values.Set("format", "application/solr+json")
	values.Set("distrib", strconv.FormatBool(c.distrib))
	return c.FetchJSON(ctx, c.baseURL+"/search?"+values.Encode(), out)
}

// FetchJSON GETs rawURL and decodes the JSON body into out. Responses are
// served from and stored in the cache when one is configured.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, out any) error {
	key := cache.Key(rawURL)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			slog.Debug("Search cache hit", "url", rawURL)
			return decode(rawURL, body, out)
		}
	}

	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := decode(rawURL, body, out); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, rawURL, body); err != nil {
			slog.Warn("Failed to cache search response", "url", rawURL, "error", err)
		}
	}
	return nil
}

func decode(rawURL string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", rawURL, err)
	}
	return nil
}

// fetch performs an HTTP GET and returns the response body.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Fetching", "url", rawURL)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(resp.Body)
}
