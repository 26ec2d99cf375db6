// Package httpclient is the outbound HTTP client shared by every provider
// backend. It bounds each call with a timeout, retries transient failures
// with exponential backoff, optionally rate-limits, and records an
// OpenTelemetry span per attempt.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/nadzzz/tandem/internal/config"
)

const (
	// maxErrorBody caps how much of a failed response is kept for the error message.
	maxErrorBody = 2048
	// maxRetryAfter is the longest Retry-After a turn waits for. Longer
	// requests fail immediately with the status error.
	maxRetryAfter = 10 * time.Second
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// retryAfterStatus carries a server-requested delay for backoff while keeping
// the StatusError as the surfaced error.
type retryAfterStatus struct {
	status *StatusError
	wait   *backoff.RetryAfterError
}

func (e *retryAfterStatus) Error() string { return e.status.Error() }

func (e *retryAfterStatus) Unwrap() []error { return []error{e.wait, e.status} }

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Client executes provider requests.
type Client struct {
	http       *http.Client
	maxRetries int
	limiter    *rate.Limiter
	backoff    func() backoff.BackOff
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client (tests use httptest clients).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackOff replaces the backoff schedule.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.backoff = f }
}

// New creates a Client from config.
func New(cfg config.HTTPClientConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: max(cfg.MaxRetries, 0),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 8 * time.Second
			return b
		},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTP returns the instrumented client for SDKs that drive their own requests.
func (c *Client) HTTP() *http.Client { return c.http }

// Do executes the request built by build, retrying transient failures, and
// returns the response body of the first 2xx answer.
func (c *Client) Do(ctx context.Context, build RequestFunc) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			slog.Debug("provider request failed", "url", req.URL.Redacted(), "attempt", attempt, "error", err)
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
			if !statusErr.Temporary() {
				return nil, backoff.Permanent(statusErr)
			}
			slog.Debug("provider returned retryable status", "url", req.URL.Redacted(), "status", resp.StatusCode, "attempt", attempt)
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				wait := time.Duration(secs) * time.Second
				if wait > maxRetryAfter {
					return nil, backoff.Permanent(statusErr)
				}
				return nil, &retryAfterStatus{status: statusErr, wait: &backoff.RetryAfterError{Duration: wait}}
			}
			return nil, statusErr
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return body, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
