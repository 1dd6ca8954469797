package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/courier/internal/state"
)

// runHeadless logs snapshot changes until ctx is cancelled.
func runHeadless(ctx context.Context, store *state.Store, logger *zap.Logger, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last state.Snapshot
	first := true
	for {
		snap := store.Snapshot()
		if first || changed(last, snap) {
			logSnapshot(logger, snap)
			last = snap
			first = false
		}
		select {
		case <-ctx.Done():
			logger.Info("courier stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func changed(prev, next state.Snapshot) bool {
	return prev.PendingCount != next.PendingCount ||
		prev.HasCount != next.HasCount ||
		prev.ChannelState != next.ChannelState ||
		prev.Transport != next.Transport ||
		prev.BaseURL != next.BaseURL ||
		prev.RiderOnline != next.RiderOnline ||
		prev.ConsecutiveFailures != next.ConsecutiveFailures ||
		len(prev.Restaurants) != len(next.Restaurants)
}

func logSnapshot(logger *zap.Logger, snap state.Snapshot) {
	fields := []zap.Field{
		zap.String("backend", snap.BaseURL),
		zap.Stringer("channel", snap.ChannelState),
		zap.String("transport", string(snap.Transport)),
		zap.Int("failures", snap.ConsecutiveFailures),
	}
	if snap.HasCount {
		fields = append(fields, zap.Int("pending_orders", snap.PendingCount))
	}
	if snap.HasRiderStatus {
		fields = append(fields, zap.Bool("rider_online", snap.RiderOnline))
	}
	if len(snap.Restaurants) > 0 {
		fields = append(fields, zap.Int("restaurants", len(snap.Restaurants)))
	}
	if snap.LastError != nil {
		fields = append(fields, zap.NamedError("last_error", snap.LastError))
	}
	logger.Info("courier snapshot", fields...)
}
