package saavn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/teal-fm/melody/metrics"
)

const (
	DefaultBaseURL   = "https://www.jiosaavn.com/api.php"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	maxBodyBytes = 8 << 20
)

// ClientConfig configures the upstream client. Zero values fall back to defaults.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	UserAgent      string
	RatePerSecond  float64
	BreakerTimeout time.Duration
}

// Client issues named-operation calls against the catalog API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// NewClient creates a client with rate limiting and a circuit breaker.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), int(cfg.RatePerSecond)+1),
		logger:     logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "saavn-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// at least 10 requests and 60% failing
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.UpstreamBreakerState.Set(breakerStateValue(to))
		},
	})

	return c
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Call performs one named operation and returns the raw JSON body.
// Every failure mode is reported as ErrUpstreamUnavailable.
func (c *Client) Call(ctx context.Context, operation string, params url.Values) ([]byte, error) {
	endpoint := c.buildEndpoint(operation, params)

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.UpstreamRequests.WithLabelValues(operation, "rejected").Inc()
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUpstreamUnavailable, err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, endpoint)
	})
	metrics.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
		c.logger.Warn().Err(err).Str("operation", operation).Msg("upstream call failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, operation, err)
	}

	metrics.UpstreamRequests.WithLabelValues(operation, "ok").Inc()
	return body, nil
}

func (c *Client) buildEndpoint(operation string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("__call", operation)
	q.Set("_format", "json")
	q.Set("_marker", "0")
	q.Set("api_version", "4")
	q.Set("ctx", "web6dot0")
	return c.baseURL + "?" + q.Encode()
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// the catalog rejects requests without a browser-like agent
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("context error during request execution: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	return recoverJSON(body)
}

// recoverJSON returns the JSON document in body. The catalog sometimes prefixes
// its JSON with stray text, so a body not starting with '{' or '[' is parsed
// from its first '{'.
func recoverJSON(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		i := bytes.IndexByte(trimmed, '{')
		if i < 0 {
			return nil, fmt.Errorf("no JSON in response body: %s", truncate(trimmed, 200))
		}
		trimmed = trimmed[i:]
	}

	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("malformed JSON in response body: %s", truncate(trimmed, 200))
	}
	return trimmed, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
