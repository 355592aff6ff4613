// Package serp wraps the local-pack ranking provider. It owns everything the
// scan engine is not allowed to care about: transport, auth, rate limiting,
// retry with backoff, and failure classification.
package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/localvantage/gridscan/internal/resilience"
)

const defaultBaseURL = "https://api.serpprovider.com/v1"

// DefaultDepth is how many listings are requested per ranked search.
const DefaultDepth = 20

// Listing is one ranked business in a local-pack result, in provider order.
type Listing struct {
	Title        string   `json:"title"`
	RankAbsolute int      `json:"rank_absolute"`
	CID          string   `json:"cid,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewsCount *int     `json:"reviews_count,omitempty"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// Client performs ranked local searches. coordinate is a "lat,lng,zoom"
// string (see geogrid.FormatCoordinate); the returned listings are ordered
// by rank ascending.
type Client interface {
	RankedSearch(ctx context.Context, keyword, coordinate string, depth int) ([]Listing, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate (2 req/s). The limiter is
// shared across every scan using this client, which is how concurrent scans
// split one provider quota.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithCircuitBreaker routes calls through the given breaker.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a ranking provider client with the given API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(2, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type rankedSearchRequest struct {
	Keyword  string `json:"keyword"`
	Location string `json:"location"`
	Depth    int    `json:"depth"`
}

type rankedSearchResponse struct {
	Items []Listing `json:"items"`
}

func (c *httpClient) RankedSearch(ctx context.Context, keyword, coordinate string, depth int) ([]Listing, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}

	fn := func(ctx context.Context) ([]Listing, error) {
		return c.rankedSearchOnce(ctx, keyword, coordinate, depth)
	}

	if c.breaker != nil {
		inner := fn
		fn = func(ctx context.Context) ([]Listing, error) {
			return resilience.ExecuteVal(ctx, c.breaker, inner)
		}
	}

	return resilience.DoVal(ctx, c.retry, fn)
}

func (c *httpClient) rankedSearchOnce(ctx context.Context, keyword, coordinate string, depth int) ([]Listing, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "serp: rate limiter wait")
		}
	}

	body, err := json.Marshal(rankedSearchRequest{
		Keyword:  keyword,
		Location: coordinate,
		Depth:    depth,
	})
	if err != nil {
		return nil, eris.Wrap(err, "serp: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/maps/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serp: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := eris.Errorf("serp: status %d: %s", resp.StatusCode, string(respBody))
		return nil, resilience.NewProviderError(apiErr, resilience.CategoryForStatus(resp.StatusCode), resp.StatusCode)
	}

	var result rankedSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal response")
	}

	return result.Items, nil
}
