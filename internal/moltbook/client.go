package moltbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"moltcast/internal/config"
	"moltcast/internal/logging"
	"moltcast/internal/services"
)

const (
	defaultBaseURL        = "https://www.moltbook.com/api/v1"
	defaultRateLimit      = 600 * time.Millisecond
	defaultHTTPTimeout    = 10 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Config captures the runtime settings required to talk to Moltbook.
type Config struct {
	BaseURL    string
	UserAgent  string
	RateLimit  time.Duration
	MaxRetries int
	Timeout    time.Duration
}

// Client fetches posts and comment trees from the Moltbook API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	sleeper        func(time.Duration)
	now            func() time.Time

	mu          sync.Mutex
	lastRequest time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how throttle and retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "moltbook")
	}
}

// NewClient constructs a Moltbook client using the supplied configuration.
// Zero values fall back to the public API defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RateLimit < 0 {
		cfg.RateLimit = 0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultRetryAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	client := &Client{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         logging.NewNop(),
		retryBaseDelay: defaultRetryBaseDelay,
		retryMaxDelay:  defaultRetryMaxDelay,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DefaultConfig returns the settings of the public Moltbook API.
func DefaultConfig() Config {
	return Config{
		BaseURL:    defaultBaseURL,
		RateLimit:  defaultRateLimit,
		MaxRetries: defaultRetryAttempts,
		Timeout:    defaultHTTPTimeout,
	}
}

// ConfigFrom maps the [source] section of the project config.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		BaseURL:    cfg.Source.BaseURL,
		UserAgent:  cfg.Source.UserAgent,
		RateLimit:  cfg.SourceRateLimit(),
		MaxRetries: cfg.Source.MaxRetries,
		Timeout:    cfg.SourceTimeout(),
	}
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 160 {
		body = body[:160] + "..."
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

// GetPosts lists one page of the feed in the requested order.
func (c *Client) GetPosts(ctx context.Context, sort Sort, limit, offset int) (PostPage, error) {
	if sort != SortHot && sort != SortTop {
		return PostPage{}, services.Wrap(services.ErrValidation, "moltbook", "list posts", fmt.Sprintf("unsupported sort %q", sort), nil)
	}
	query := url.Values{}
	query.Set("sort", string(sort))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var payload postListResponse
	if err := c.getJSON(ctx, "list posts", "/posts?"+query.Encode(), &payload); err != nil {
		return PostPage{}, err
	}
	if !payload.Success {
		return PostPage{}, services.Wrap(services.ErrExternalTool, "moltbook", "list posts", "api reported failure", apiError(payload.Error))
	}
	for i, post := range payload.Posts {
		if strings.TrimSpace(post.ID) == "" {
			return PostPage{}, services.Wrap(services.ErrExternalTool, "moltbook", "list posts", fmt.Sprintf("post %d missing id", i), nil)
		}
	}
	return PostPage{Posts: payload.Posts, NextOffset: payload.NextOffset, HasMore: payload.HasMore}, nil
}

// GetPostDetail fetches a single post with its full comment tree.
func (c *Client) GetPostDetail(ctx context.Context, id string) (PostDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return PostDetail{}, services.Wrap(services.ErrValidation, "moltbook", "get post", "post id required", nil)
	}
	var payload postDetailResponse
	if err := c.getJSON(ctx, "get post", "/posts/"+url.PathEscape(id), &payload); err != nil {
		return PostDetail{}, err
	}
	if !payload.Success || payload.Post == nil {
		return PostDetail{}, services.Wrap(services.ErrExternalTool, "moltbook", "get post", "api reported failure for "+id, apiError(payload.Error))
	}
	comments := payload.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return PostDetail{Post: *payload.Post, Comments: comments}, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, target any) error {
	attempts := c.cfg.MaxRetries
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.throttle(ctx); err != nil {
			return services.Wrap(services.ErrExternalTool, "moltbook", op, "cancelled", err)
		}
		body, err := c.getOnce(ctx, path)
		if err == nil {
			if err := json.Unmarshal(body, target); err != nil {
				return services.Wrap(services.ErrExternalTool, "moltbook", op, "decode response", err)
			}
			return nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return classify(op, err)
		}
		c.logger.Debug("retrying moltbook request",
			logging.String("path", path),
			logging.Int("attempt", attempt),
			logging.String("delay", delay.String()),
			logging.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			return services.Wrap(services.ErrExternalTool, "moltbook", op, "cancelled", err)
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return services.Wrap(services.ErrExternalTool, "moltbook", op, fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func apiError(message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return errors.New(message)
}

func classify(op string, err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, "moltbook", op, "not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "moltbook", op, "request timed out", err)
	}
	return services.Wrap(services.ErrExternalTool, "moltbook", op, "request failed", err)
}

func (c *Client) getOnce(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error (timeout=%s): %w", c.cfg.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: retryAfter}
	}
	return body, nil
}

// throttle enforces the minimum spacing between consecutive requests.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.RateLimit > 0 && !c.lastRequest.IsZero() {
		if wait := c.cfg.RateLimit - c.now().Sub(c.lastRequest); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.lastRequest = c.now()
	return nil
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles from the base delay: attempt 1 -> base, 2 -> 2*base, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retryBaseDelay <= 0 {
		return 0
	}
	delay := c.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if c.retryMaxDelay > 0 && delay > c.retryMaxDelay/2 {
			delay = c.retryMaxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
