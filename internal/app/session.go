package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/courier/internal/backend"
	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/resolver"
	"github.com/five82/courier/internal/state"
)

// session ties the backend client to the shared store. The UI drives it
// through ui.Actions.
type session struct {
	client   *backend.Client
	resolver *resolver.Resolver
	store    *state.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// RefreshRiderStatus asks the backend whether the rider is online.
func (s *session) RefreshRiderStatus(ctx context.Context) error {
	env := s.client.RiderStatus(ctx)
	s.noteBaseURL()
	if !env.Success {
		return fmt.Errorf("rider status: %w", env.Err())
	}
	online, err := env.RiderOnline()
	if err != nil {
		return fmt.Errorf("rider status: %w", err)
	}
	s.store.SetRiderOnline(online)
	return nil
}

// ToggleRiderStatus flips availability. When the response does not carry the
// new status it is fetched separately.
func (s *session) ToggleRiderStatus(ctx context.Context) error {
	env := s.client.ToggleRiderStatus(ctx)
	s.noteBaseURL()
	if !env.Success {
		return fmt.Errorf("toggle rider status: %w", env.Err())
	}
	if online, err := env.RiderOnline(); err == nil {
		s.store.SetRiderOnline(online)
		s.logger.Info("rider status toggled", zap.Bool("online", online))
		return nil
	}
	return s.RefreshRiderStatus(ctx)
}

// RefreshRestaurants reloads the restaurant listing.
func (s *session) RefreshRestaurants(ctx context.Context) error {
	env := s.client.Restaurants(ctx)
	s.noteBaseURL()
	if !env.Success {
		return fmt.Errorf("restaurants: %w", env.Err())
	}
	items, err := env.Restaurants()
	if err != nil {
		return fmt.Errorf("restaurants: %w", err)
	}
	s.store.SetRestaurants(items)
	return nil
}

// noteBaseURL mirrors the resolver's cache into the store; it is empty after
// an invalidation.
func (s *session) noteBaseURL() {
	base, _ := s.resolver.Cached()
	s.store.SetBaseURL(base)
}
