package inspire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the INSPIRE REST API base URL.
	BaseURL = "https://inspirehep.net/api"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is 15 requests per 5 seconds per INSPIRE documentation.
	RateLimit = 3.0

	// DefaultUserAgent identifies the client to the server.
	DefaultUserAgent = "inspire-cli"

	// DefaultSize is the default number of records per query.
	DefaultSize = 10
)

// Client is a rate-limited HTTP client for the INSPIRE literature API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithRateLimit sets the request rate in requests per second.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new INSPIRE API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		userAgent:  DefaultUserAgent,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL returns the literature search URL for a query.
func (c *Client) SearchURL(query string, sort Sort, size int) string {
	v := url.Values{}
	v.Set("sort", string(sort))
	v.Set("size", strconv.Itoa(size))
	v.Set("q", query)
	return c.baseURL + "/literature?" + v.Encode()
}

// Query searches the literature database. Hits without citation keys are
// dropped from the returned records; Total is the server's count.
func (c *Client) Query(ctx context.Context, query string, sort Sort, size int) (*Result, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if sort == "" {
		sort = SortMostRecent
	}

	body, err := c.get(ctx, c.SearchURL(query, sort, size), "application/json")
	if err != nil {
		return nil, err
	}

	var resp literatureResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	result := &Result{
		Records: make([]Record, 0, len(resp.Hits.Hits)),
		Total:   resp.Hits.Total,
	}
	for _, h := range resp.Hits.Hits {
		if len(h.Metadata.TexKeys) == 0 {
			continue
		}
		result.Records = append(result.Records, h.toRecord())
	}
	return result, nil
}

// Retrieve fetches a record in the given display format by following the
// record's link for that format.
func (c *Client) Retrieve(ctx context.Context, rec Record, format string) (string, error) {
	link := rec.Links[format]
	if link == "" {
		return "", fmt.Errorf("%w: %s for %q", ErrFormatUnavailable, format, rec.Key())
	}
	body, err := c.get(ctx, link, "*/*")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get performs a rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, u, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("inspire request", "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("inspire response", "url", u, "status", resp.StatusCode)

	if err := checkHTTPErrors(resp, u); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, u string) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, URL: u}
	}
	return nil
}
