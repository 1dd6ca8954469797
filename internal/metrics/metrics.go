// Package metrics exposes Prometheus collectors for backend resolution,
// request outcomes and update delivery.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Courier collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Probes          *prometheus.CounterVec
	Invalidations   prometheus.Counter
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Transitions     *prometheus.CounterVec
	Updates         *prometheus.CounterVec
	PollFailures    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Probes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_resolver_probes_total",
				Help: "Liveness probes issued against candidate base URLs",
			},
			[]string{"candidate", "result"},
		),
		Invalidations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "courier_resolver_invalidations_total",
				Help: "Times the cached base URL was cleared after a failure",
			},
		),
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_backend_requests_total",
				Help: "Functional backend calls by operation and outcome",
			},
			[]string{"operation", "result"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courier_backend_request_duration_seconds",
				Help:    "Functional backend call duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_updates_transitions_total",
				Help: "Update channel state transitions by target state",
			},
			[]string{"state"},
		),
		Updates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_updates_delivered_total",
				Help: "Update envelopes delivered to subscribers by transport",
			},
			[]string{"transport"},
		),
		PollFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "courier_updates_poll_failures_total",
				Help: "Failed poll ticks reported to subscribers",
			},
		),
	}
}

// ObserveProbe records one liveness probe.
func (m *Metrics) ObserveProbe(candidate string, ok bool) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(candidate, result(ok)).Inc()
}

// ObserveInvalidation records a cache invalidation.
func (m *Metrics) ObserveInvalidation() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
}

// ObserveRequest records a functional call and its duration.
func (m *Metrics) ObserveRequest(operation string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, result(ok)).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveCancelledRequest records a call abandoned because its caller's
// context ended.
func (m *Metrics) ObserveCancelledRequest(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, "cancelled").Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveTransition records an update channel entering state.
func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(state).Inc()
}

// ObserveUpdate records an envelope delivered over transport.
func (m *Metrics) ObserveUpdate(transport string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(transport).Inc()
}

// ObservePollFailure records a failed poll tick.
func (m *Metrics) ObservePollFailure() {
	if m == nil {
		return
	}
	m.PollFailures.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
