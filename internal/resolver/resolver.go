package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/metrics"
)

// ErrNoReachableBackend is returned when every candidate failed its probe.
var ErrNoReachableBackend = errors.New("no working URL found")

const (
	defaultProbeTimeout = 5 * time.Second
	probePath           = "/"
	defaultUserAgent    = "courier/0.1"
)

// Resolver picks the first reachable base URL from a fixed candidate list and
// remembers it until Invalidate is called.
type Resolver struct {
	candidates   []string
	http         *resty.Client
	probeTimeout time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics

	mu     sync.Mutex
	cached string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the resty client used for probes.
func WithHTTPClient(client *resty.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.http = client
		}
	}
}

// WithProbeTimeout bounds each individual probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records probe and invalidation counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New builds a Resolver over candidates, tried strictly in the given order.
func New(candidates []string, opts ...Option) *Resolver {
	r := &Resolver{
		candidates:   append([]string(nil), candidates...),
		probeTimeout: defaultProbeTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.http == nil {
		r.http = resty.New().
			SetHeader("User-Agent", defaultUserAgent)
	}
	r.logger = r.logger.Named("resolver")
	return r
}

// Resolve returns the cached base URL, or probes the candidates in order and
// caches the first one that answers with a 2xx status. Concurrent callers
// that find the cache empty each probe independently.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if base, ok := r.Cached(); ok {
		return base, nil
	}

	var lastErr error
	for _, candidate := range r.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := r.probe(ctx, candidate)
		r.metrics.ObserveProbe(candidate, err == nil)
		if err != nil {
			r.logger.Debug("candidate unreachable",
				zap.String("candidate", candidate),
				zap.Error(err))
			lastErr = err
			continue
		}

		r.mu.Lock()
		r.cached = candidate
		r.mu.Unlock()

		r.logger.Info("resolved backend", zap.String("base_url", candidate))
		return candidate, nil
	}

	r.logger.Warn("no reachable backend",
		zap.Strings("candidates", r.candidates),
		zap.Error(lastErr))
	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrNoReachableBackend, lastErr)
	}
	return "", ErrNoReachableBackend
}

// Invalidate clears the cached base URL so the next Resolve probes again.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	previous := r.cached
	r.cached = ""
	r.mu.Unlock()

	r.noteInvalidated(previous)
}

// InvalidateIf clears the cache only while it still holds base, so a failure
// seen through an old URL cannot wipe one cached since. It reports whether
// the slot was cleared.
func (r *Resolver) InvalidateIf(base string) bool {
	r.mu.Lock()
	if base == "" || r.cached != base {
		r.mu.Unlock()
		return false
	}
	r.cached = ""
	r.mu.Unlock()

	r.noteInvalidated(base)
	return true
}

func (r *Resolver) noteInvalidated(previous string) {
	if previous == "" {
		return
	}
	r.metrics.ObserveInvalidation()
	r.logger.Info("invalidated backend", zap.String("base_url", previous))
}

// Cached reports the current cache slot without probing.
func (r *Resolver) Cached() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached, r.cached != ""
}

// Candidates returns a copy of the candidate list.
func (r *Resolver) Candidates() []string {
	return append([]string(nil), r.candidates...)
}

func (r *Resolver) probe(ctx context.Context, base string) error {
	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	resp, err := r.http.R().
		SetContext(probeCtx).
		SetDoNotParseResponse(true).
		Get(base + probePath)
	if err != nil {
		return fmt.Errorf("probe %s: %w", base, err)
	}
	if body := resp.RawBody(); body != nil {
		_ = body.Close()
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("probe %s returned status %d", base, resp.StatusCode())
	}
	return nil
}
