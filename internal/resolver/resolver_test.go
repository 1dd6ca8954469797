package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/five82/courier/internal/metrics"
)

// probeServer counts root probes and answers with status.
type probeServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newProbeServer(t *testing.T, status int) *probeServer {
	t.Helper()
	ps := &probeServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			ps.hits.Add(1)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// deadURL returns an address nothing listens on.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestResolve_ReturnsFirstReachableAndSkipsRest(t *testing.T) {
	a := newProbeServer(t, http.StatusInternalServerError)
	b := newProbeServer(t, http.StatusOK)
	c := newProbeServer(t, http.StatusOK)

	r := New([]string{a.URL, b.URL, c.URL}, WithProbeTimeout(time.Second))

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != b.URL {
		t.Fatalf("Resolve = %q, want %q", got, b.URL)
	}
	if a.hits.Load() != 1 || b.hits.Load() != 1 {
		t.Fatalf("probe hits a=%d b=%d, want 1 each", a.hits.Load(), b.hits.Load())
	}
	if c.hits.Load() != 0 {
		t.Fatalf("candidate C probed %d times, want 0", c.hits.Load())
	}
}

func TestResolve_MemoizesUntilInvalidated(t *testing.T) {
	good := newProbeServer(t, http.StatusOK)
	r := New([]string{good.URL})

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background()); err != nil {
			t.Fatalf("Resolve #%d returned error: %v", i, err)
		}
	}
	if got := good.hits.Load(); got != 1 {
		t.Fatalf("probe hits = %d, want 1 while cached", got)
	}

	r.Invalidate()
	if _, ok := r.Cached(); ok {
		t.Fatalf("Cached reported a value after Invalidate")
	}
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve after Invalidate returned error: %v", err)
	}
	if got := good.hits.Load(); got != 2 {
		t.Fatalf("probe hits = %d, want 2 after invalidate", got)
	}
}

func TestResolve_InvalidateReprobesFromFirstCandidate(t *testing.T) {
	a := newProbeServer(t, http.StatusServiceUnavailable)
	b := newProbeServer(t, http.StatusOK)
	r := New([]string{a.URL, b.URL})

	if got, err := r.Resolve(context.Background()); err != nil || got != b.URL {
		t.Fatalf("Resolve = %q, %v; want %q", got, err, b.URL)
	}
	r.Invalidate()
	if got, err := r.Resolve(context.Background()); err != nil || got != b.URL {
		t.Fatalf("Resolve = %q, %v; want %q", got, err, b.URL)
	}
	if got := a.hits.Load(); got != 2 {
		t.Fatalf("first candidate probed %d times, want 2", got)
	}
}

func TestInvalidateIf_ClearsOnlyMatchingBase(t *testing.T) {
	good := newProbeServer(t, http.StatusOK)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := New([]string{good.URL}, WithMetrics(m))

	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	for _, stale := range []string{"", "http://10.0.2.2:8000"} {
		if r.InvalidateIf(stale) {
			t.Fatalf("InvalidateIf(%q) = true, want false", stale)
		}
	}
	if got, ok := r.Cached(); !ok || got != good.URL {
		t.Fatalf("Cached = %q, %v; want %q kept", got, ok, good.URL)
	}

	if !r.InvalidateIf(good.URL) {
		t.Fatalf("InvalidateIf(cached) = false, want true")
	}
	if _, ok := r.Cached(); ok {
		t.Fatalf("Cached reported a value after InvalidateIf")
	}
	if r.InvalidateIf(good.URL) {
		t.Fatalf("second InvalidateIf = true, want false on an empty cache")
	}
	if got := testutil.ToFloat64(m.Invalidations); got != 1 {
		t.Fatalf("invalidations = %v, want 1", got)
	}
}

func TestResolve_AllCandidatesFail(t *testing.T) {
	bad := newProbeServer(t, http.StatusBadGateway)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := New([]string{deadURL(t), bad.URL}, WithProbeTimeout(500*time.Millisecond), WithMetrics(m))

	got, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrNoReachableBackend) {
		t.Fatalf("Resolve error = %v, want ErrNoReachableBackend", err)
	}
	if got != "" {
		t.Fatalf("Resolve = %q, want empty", got)
	}
	if _, ok := r.Cached(); ok {
		t.Fatalf("cache populated after exhaustion")
	}
	if n := testutil.CollectAndCount(m.Probes); n != 2 {
		t.Fatalf("probe series = %d, want 2", n)
	}
}

func TestResolve_EmptyCandidateList(t *testing.T) {
	r := New(nil)
	if _, err := r.Resolve(context.Background()); !errors.Is(err, ErrNoReachableBackend) {
		t.Fatalf("Resolve error = %v, want ErrNoReachableBackend", err)
	}
}

func TestResolve_ProbeTimeoutCountsAsFailure(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	good := newProbeServer(t, http.StatusOK)

	r := New([]string{slow.URL, good.URL}, WithProbeTimeout(100*time.Millisecond))
	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != good.URL {
		t.Fatalf("Resolve = %q, want %q", got, good.URL)
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	good := newProbeServer(t, http.StatusOK)
	r := New([]string{good.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve error = %v, want context.Canceled", err)
	}
	if good.hits.Load() != 0 {
		t.Fatalf("probed despite cancelled context")
	}
}

func TestCandidatesReturnsCopy(t *testing.T) {
	r := New([]string{"http://a", "http://b"})
	list := r.Candidates()
	list[0] = "mutated"
	if r.Candidates()[0] != "http://a" {
		t.Fatalf("Candidates should return a copy")
	}
}
