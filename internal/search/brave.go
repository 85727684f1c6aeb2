package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/park-fees/internal/logger"
)

const (
	DefaultBaseURL   = "https://api.search.brave.com/res/v1/web/search"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 1.0
	DefaultRetries   = 2

	// MaxCount is the largest page size the provider accepts.
	MaxCount = 20
)

// ErrUnavailable wraps every search failure: transport errors, timeouts,
// non-2xx responses and undecodable bodies.
var ErrUnavailable = errors.New("search provider unavailable")

// Result is one web search hit.
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// BraveClient provides access to the Brave Web Search API.
type BraveClient struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	apiKey        string
	timeout       time.Duration
	limiter       *rate.Limiter
	maxRetries    uint64
	retryInterval time.Duration
}

// Option configures a BraveClient.
type Option func(*BraveClient)

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *BraveClient) { c.BaseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BraveClient) { c.HTTPClient = hc }
}

// WithTimeout bounds each search call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *BraveClient) { c.timeout = d }
}

// WithRateLimit sets the number of requests per second. A non-positive
// value disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *BraveClient) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetries sets how many times a throttled or failed request is retried
// and the first backoff interval.
func WithRetries(n int, initial time.Duration) Option {
	return func(c *BraveClient) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = uint64(n)
		c.retryInterval = initial
	}
}

// NewBraveClient creates a Brave Web Search API client.
func NewBraveClient(apiKey string, opts ...Option) *BraveClient {
	c := &BraveClient{
		BaseURL:       DefaultBaseURL,
		HTTPClient:    &http.Client{},
		UserAgent:     "park-fees/1.0",
		apiKey:        apiKey,
		timeout:       DefaultTimeout,
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		maxRetries:    DefaultRetries,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type braveResponse struct {
	Web struct {
		Results []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// statusError is a non-2xx response from the provider.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.code, e.body)
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Search returns up to count results for query in provider order.
func (c *BraveClient) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 || count > MaxCount {
		count = MaxCount
	}

	logger.IncrCounter("search.requests")
	start := time.Now()
	defer func() { logger.RecordTiming("search.duration", time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	var results []Result
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.do(ctx, query, count)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				return err
			}
			var se *statusError
			if errors.As(err, &se) && !retryable(se.code) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			logger.Debug("Retrying search", logger.Fields{"query": query, "error": err.Error()})
			return err
		}
		results = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		logger.IncrCounter("search.failures")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return results, nil
}

func (c *BraveClient) do(ctx context.Context, query string, count int) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parsing response: %w", err))
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Description,
		})
		if len(results) == count {
			break
		}
	}
	return results, nil
}
