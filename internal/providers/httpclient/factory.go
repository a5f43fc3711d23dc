// Package httpclient is the shared HTTP client factory for provider
// adapters (§4.6, §5, §9): per-call cancellation composed with a timeout,
// a circuit breaker per provider, and a per-provider rate limiter.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/platform"
)

// DefaultTimeout is the per-HTTP default named in §5 ("default 12s for HTTP").
const DefaultTimeout = 12 * time.Second

// Config configures a provider's Client.
type Config struct {
	// Timeout overrides DefaultTimeout for this provider.
	Timeout time.Duration
	// RequestsPerSecond and Burst configure the token-bucket limiter; zero
	// RequestsPerSecond disables rate limiting.
	RequestsPerSecond float64
	Burst             int
	// MaxRetries defaults to 0 ("default none", §4.6) — a provider module
	// may opt into retries via this knob (§9 open question 3).
	MaxRetries int
}

// Client wraps an *http.Client with a per-provider circuit breaker and rate
// limiter, composing the caller's cancellation signal with a timeout on
// every Do call (§5 suspension points, §9 cancellation-composition helper).
type Client struct {
	providerID string
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
}

// New builds a Client for providerID using cfg. A zero Config yields the
// spec default timeout with no rate limiting and no retries.
func New(providerID string, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	settings := gobreaker.Settings{
		Name:    providerID,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
		},
	}

	return &Client{
		providerID: providerID,
		http:       &http.Client{},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		limiter:    limiter,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
	}
}

// Do executes req against the composed cancellation context, through the
// rate limiter and circuit breaker, retrying up to maxRetries times on
// transient failure. Non-2xx responses are read and returned as the body
// with no error; callers inspect the status code themselves.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	composed, cancel := platform.Compose(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(composed); err != nil {
			return nil, nil, c.classify(err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, body, err := c.attempt(composed, req)
		if err == nil {
			return resp, body, nil
		}
		lastErr = err
		if composed.Err() != nil {
			break
		}
	}
	return nil, nil, c.classify(lastErr)
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		r := req.Clone(ctx)
		resp, err := c.http.Do(r)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &bodyResult{resp: resp, body: body}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	br := result.(*bodyResult)
	return br.resp, br.body, nil
}

type bodyResult struct {
	resp *http.Response
	body []byte
}

// classify converts a transport/breaker-level error into a *finance.ProviderError.
func (c *Client) classify(err error) *finance.ProviderError {
	if err == nil {
		return nil
	}
	if err == context.DeadlineExceeded || err == gobreaker.ErrOpenState {
		return &finance.ProviderError{
			Source:  c.providerID,
			Message: fmt.Sprintf("request timed out or circuit open: %v", err),
			Code:    finance.CodeTimeout,
			Cause:   err,
		}
	}
	if err == context.Canceled {
		return &finance.ProviderError{
			Source:  c.providerID,
			Message: "request cancelled",
			Code:    finance.CodeTimeout,
			Cause:   err,
		}
	}
	return &finance.ProviderError{
		Source:  c.providerID,
		Message: err.Error(),
		Code:    finance.CodeNetwork,
		Cause:   err,
	}
}
