package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/courier/internal/backend"
	"github.com/five82/courier/internal/updates"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	BaseURL             string
	ChannelState        updates.State
	Transport           updates.Transport
	PendingCount        int
	HasCount            bool
	LastUpdateType      string
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // poll failures since the last delivered update
	RiderOnline         bool
	HasRiderStatus      bool
	Restaurants         []backend.Restaurant
}

// IsOffline returns true when polling has failed several times in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// ApplyUpdate records a delivered update. Order count updates replace the
// pending count; every update clears the failure streak.
func (s *Store) ApplyUpdate(u updates.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Type == updates.TypeOrderCount {
		s.snapshot.PendingCount = u.Count
		s.snapshot.HasCount = true
	}
	s.snapshot.LastUpdateType = u.Type
	s.snapshot.Transport = u.Transport
	s.snapshot.LastUpdated = u.Timestamp
	if s.snapshot.LastUpdated.IsZero() {
		s.snapshot.LastUpdated = time.Now()
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// RecordError keeps the previous data but records err for visibility.
func (s *Store) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastError = err
	s.snapshot.ConsecutiveFailures++
}

// SetChannelState records the update channel's current state.
func (s *Store) SetChannelState(state updates.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.ChannelState = state
}

// SetBaseURL records the backend the client resolved to. Empty means unresolved.
func (s *Store) SetBaseURL(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.BaseURL = base
}

// SetRiderOnline records the rider's availability as reported by the backend.
func (s *Store) SetRiderOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.RiderOnline = online
	s.snapshot.HasRiderStatus = true
}

// SetRestaurants replaces the cached restaurant listing.
func (s *Store) SetRestaurants(items []backend.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Restaurants = cloneRestaurants(items)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Restaurants = cloneRestaurants(s.snapshot.Restaurants)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneRestaurants(items []backend.Restaurant) []backend.Restaurant {
	if len(items) == 0 {
		return nil
	}
	dup := make([]backend.Restaurant, len(items))
	copy(dup, items)
	return dup
}
