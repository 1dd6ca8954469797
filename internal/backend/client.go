package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/metrics"
)

var (
	// ErrRequestFailure covers network errors, timeouts and non-2xx responses
	// from a resolved base URL.
	ErrRequestFailure = errors.New("request failed")
	// ErrMalformedResponse marks a 2xx body that could not be parsed.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrRequestFailure)
	// ErrCancelled marks a call abandoned because the caller's context ended.
	// The backend is not blamed for it.
	ErrCancelled = errors.New("request cancelled")
)

// Resolver supplies the backend base URL and forgets it after a failure.
// InvalidateIf clears the cache only while it still holds base.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
	InvalidateIf(base string) bool
}

// Client issues functional backend calls and folds every outcome into an
// Envelope.
type Client struct {
	resolver  Resolver
	http      *resty.Client
	timeout   time.Duration
	paths     Paths
	userAgent string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

const (
	defaultUserAgent      = "courier/0.1"
	defaultRequestTimeout = 10 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each functional request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient overrides the resty client.
func WithHTTPClient(client *resty.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithPaths overrides the endpoint path table.
func WithPaths(p Paths) Option {
	return func(c *Client) {
		c.paths = p
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a Client that resolves its base URL through resolver.
func NewClient(resolver Resolver, opts ...Option) (*Client, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is nil")
	}
	c := &Client{
		resolver:  resolver,
		timeout:   defaultRequestTimeout,
		paths:     DefaultPaths(),
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = resty.New()
	}
	c.logger = c.logger.Named("backend")
	return c, nil
}

// Paths returns the endpoint table in use.
func (c *Client) Paths() Paths {
	return c.paths
}

// Call resolves the base URL, issues the request and normalizes the result.
// It never returns a Go error: failures become envelopes with Success=false.
func (c *Client) Call(ctx context.Context, operation, method, path string, body any) Envelope {
	start := time.Now()
	env, err := c.call(ctx, method, path, body)
	switch {
	case errors.Is(err, ErrCancelled):
		c.metrics.ObserveCancelledRequest(operation, time.Since(start))
		c.logger.Debug("backend call cancelled",
			zap.String("operation", operation),
			zap.String("path", path))
	case err != nil:
		c.metrics.ObserveRequest(operation, false, time.Since(start))
		c.logger.Warn("backend call failed",
			zap.String("operation", operation),
			zap.String("path", path),
			zap.Error(err))
	default:
		c.metrics.ObserveRequest(operation, true, time.Since(start))
	}
	return env
}

func (c *Client) call(ctx context.Context, method, path string, body any) (Envelope, error) {
	base, err := c.resolver.Resolve(ctx)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cancelled(cerr)
		}
		return NoReachableBackend(), err
	}

	env, err := c.do(ctx, method, base, path, body)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cancelled(cerr)
		}
		c.resolver.InvalidateIf(base)
		return env, err
	}
	return env, nil
}

func cancelled(cause error) (Envelope, error) {
	err := fmt.Errorf("%w: %v", ErrCancelled, cause)
	return Failure(err.Error(), ""), err
}

func (c *Client) do(ctx context.Context, method, base, path string, body any) (Envelope, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := c.http.R().
		SetContext(reqCtx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("User-Agent", c.userAgent).
		SetHeader("X-Request-ID", uuid.NewString())
	if body != nil && method != http.MethodGet {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, base+path)
	if err != nil {
		wrapped := fmt.Errorf("%w: execute request: %v", ErrRequestFailure, err)
		return Failure(wrapped.Error(), ""), wrapped
	}

	if !resp.IsSuccess() {
		wrapped := fmt.Errorf("%w: api %s returned status %d", ErrRequestFailure, path, resp.StatusCode())
		failure := Failure(wrapped.Error(), "")
		// Django views often explain the rejection in the body.
		if env, perr := normalize(resp.Body()); perr == nil && !env.Success {
			if env.Error != "" {
				failure.Error = env.Error
			}
			failure.Message = env.Message
			failure.Fields = env.Fields
		}
		return failure, wrapped
	}

	env, err := normalize(resp.Body())
	if err != nil {
		wrapped := fmt.Errorf("decode response: %w", err)
		return Failure(wrapped.Error(), ""), wrapped
	}
	return env, nil
}
