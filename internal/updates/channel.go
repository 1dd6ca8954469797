package updates

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/backend"
	"github.com/five82/courier/internal/metrics"
)

// ErrPollFailure wraps errors reported to onError for failed poll ticks.
var ErrPollFailure = errors.New("poll failed")

const (
	defaultConnectTimeout = 5 * time.Second
	defaultPollInterval   = 5 * time.Second
	defaultSocketPath     = "/ws/orders/updates/"
	closeGracePeriod      = time.Second
)

// BaseURLResolver supplies the backend base URL.
type BaseURLResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// CountFetcher performs one poll of the pending order count.
type CountFetcher interface {
	PendingOrderCount(ctx context.Context) backend.Envelope
}

// Dialer opens WebSocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Channel creates order-update subscriptions over a socket with polling
// fallback.
type Channel struct {
	resolver       BaseURLResolver
	fetcher        CountFetcher
	dialer         Dialer
	path           string
	connectTimeout time.Duration
	pollInterval   time.Duration
	onState        func(State)
	logger         *zap.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
}

// Option configures a Channel.
type Option func(*Channel)

// WithDialer overrides the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithSocketPath overrides the socket path appended to the base URL.
func WithSocketPath(path string) Option {
	return func(c *Channel) {
		if path != "" {
			c.path = path
		}
	}
}

// WithConnectTimeout bounds the Connecting state.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithPollInterval sets the polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithStateHook is called on every state a subscription enters.
func WithStateHook(fn func(State)) Option {
	return func(c *Channel) {
		c.onState = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records transitions and deliveries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// New builds a Channel. fetcher is used only while polling.
func New(resolver BaseURLResolver, fetcher CountFetcher, opts ...Option) *Channel {
	c := &Channel{
		resolver:       resolver,
		fetcher:        fetcher,
		path:           defaultSocketPath,
		connectTimeout: defaultConnectTimeout,
		pollInterval:   defaultPollInterval,
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: c.connectTimeout,
		}
	}
	c.logger = c.logger.Named("updates")
	return c
}

// Subscribe starts delivering updates to onUpdate until the returned
// Subscription is closed or ctx is cancelled. onError receives poll
// failures only; socket problems are handled by falling back to polling.
// Callbacks run on the subscription's goroutine and must not call Close.
func (c *Channel) Subscribe(ctx context.Context, onUpdate func(Update), onError func(error)) *Subscription {
	if onUpdate == nil {
		onUpdate = func(Update) {}
	}
	if onError == nil {
		onError = func(error) {}
	}
	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		ch:       c,
		ctx:      subCtx,
		cancel:   cancel,
		onUpdate: onUpdate,
		onError:  onError,
		done:     make(chan struct{}),
		state:    StateConnecting,
	}
	go s.run()
	return s
}

// ConnectToOrderUpdates is Subscribe under the name the screens use.
func (c *Channel) ConnectToOrderUpdates(ctx context.Context, onUpdate func(Update), onError func(error)) *Subscription {
	return c.Subscribe(ctx, onUpdate, onError)
}
