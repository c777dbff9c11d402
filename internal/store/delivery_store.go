// Package store owns the driver's working set: the stop collection, the
// current driver position, the route configuration and saved places.
//
// All mutations go through Mutate, which runs one at a time. Readers get deep
// copies and never observe a half-applied change.
package store

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"delivtrack/internal/domain"
	"delivtrack/internal/ports"
)

type State struct {
	Stops       []domain.Stop
	Driver      domain.DriverLocation
	Config      domain.RouteConfig
	SavedPlaces []domain.SavedPlace
	// Version counts committed mutations since the store was opened.
	Version uint64
}

// FindStop returns the index of the stop with the given id, or -1.
func (s *State) FindStop(id string) int {
	return slices.IndexFunc(s.Stops, func(st domain.Stop) bool { return st.ID == id })
}

// FindPlace returns the index of the saved place with the given id, or -1.
func (s *State) FindPlace(id string) int {
	return slices.IndexFunc(s.SavedPlaces, func(p domain.SavedPlace) bool { return p.ID == id })
}

func (s State) clone() State {
	out := State{
		Stops:       slices.Clone(s.Stops),
		Driver:      s.Driver,
		Config:      s.Config,
		SavedPlaces: slices.Clone(s.SavedPlaces),
		Version:     s.Version,
	}
	if s.Config.EndLocation != nil {
		end := *s.Config.EndLocation
		out.Config.EndLocation = &end
	}
	return out
}

type DeliveryStore struct {
	mu    sync.Mutex
	state State
	repo  ports.RouteStateRepository
}

// New creates an in-memory store with the driver parked at driver.
func New(driver domain.DriverLocation) *DeliveryStore {
	return &DeliveryStore{state: State{Driver: driver}}
}

// Open creates a store backed by repo and restores the last saved state.
// The default driver position is used when nothing was saved yet.
func Open(ctx context.Context, repo ports.RouteStateRepository, driver domain.DriverLocation) (*DeliveryStore, error) {
	s := New(driver)
	if repo == nil {
		return s, nil
	}

	saved, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open delivery store: %w", err)
	}

	s.repo = repo
	s.state.Stops = saved.Stops
	s.state.Config = saved.Config
	s.state.SavedPlaces = saved.SavedPlaces
	if saved.Driver != nil {
		s.state.Driver = *saved.Driver
	}

	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *DeliveryStore) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Mutate applies fn to a working copy of the state. The copy replaces the
// current state only if fn succeeds; the committed state is then persisted
// and returned. Persistence failures are logged, not returned, since the
// in-memory state is authoritative.
func (s *DeliveryStore) Mutate(ctx context.Context, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&working); err != nil {
		return State{}, err
	}
	working.Version = s.state.Version + 1
	s.state = working

	if s.repo != nil {
		driver := working.Driver
		err := s.repo.Save(ctx, ports.RouteState{
			Stops:       working.Stops,
			Driver:      &driver,
			Config:      working.Config,
			SavedPlaces: working.SavedPlaces,
		})
		if err != nil {
			log.Printf("delivery store: persist failed: %v", err)
		}
	}

	return working.clone(), nil
}
