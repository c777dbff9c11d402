package store

import (
	"context"
	"errors"
	"testing"

	"delivtrack/internal/domain"
	"delivtrack/internal/ports"
)

type memoryRepo struct {
	state   ports.RouteState
	saves   int
	saveErr error
}

func (m *memoryRepo) Load(ctx context.Context) (ports.RouteState, error) {
	return m.state, nil
}

func (m *memoryRepo) Save(ctx context.Context, s ports.RouteState) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = s
	return nil
}

func TestMutateCommitsOnlyOnSuccess(t *testing.T) {
	s := New(domain.DriverLocation{Coordinates: domain.Coordinates{Lat: 1, Lng: 2}})

	_, err := s.Mutate(context.Background(), func(st *State) error {
		st.Stops = append(st.Stops, domain.Stop{ID: "a", Status: domain.StatusPending})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("boom")
	_, err = s.Mutate(context.Background(), func(st *State) error {
		st.Stops = append(st.Stops, domain.Stop{ID: "b"})
		st.Stops[0].Status = domain.StatusCancelled
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	snap := s.Snapshot()
	if len(snap.Stops) != 1 || snap.Stops[0].ID != "a" {
		t.Fatalf("failed mutation leaked into state: %+v", snap.Stops)
	}
	if snap.Stops[0].Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", snap.Stops[0].Status)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(domain.DriverLocation{})
	_, _ = s.Mutate(context.Background(), func(st *State) error {
		st.Stops = []domain.Stop{{ID: "a"}}
		st.Config.EndLocation = &domain.EndLocation{Address: "depot"}
		return nil
	})

	snap := s.Snapshot()
	snap.Stops[0].ID = "changed"
	snap.Config.EndLocation.Address = "changed"

	again := s.Snapshot()
	if again.Stops[0].ID != "a" {
		t.Errorf("stop id = %q, want a", again.Stops[0].ID)
	}
	if again.Config.EndLocation.Address != "depot" {
		t.Errorf("end address = %q, want depot", again.Config.EndLocation.Address)
	}
}

func TestOpenRestoresAndPersists(t *testing.T) {
	saved := domain.DriverLocation{Coordinates: domain.Coordinates{Lat: 10, Lng: 20}}
	repo := &memoryRepo{state: ports.RouteState{
		Stops:  []domain.Stop{{ID: "x", Status: domain.StatusPending}},
		Driver: &saved,
		Config: domain.RouteConfig{WorkEndTime: "18:00"},
	}}

	s, err := Open(context.Background(), repo, domain.DriverLocation{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Stops) != 1 || snap.Driver.Lat != 10 || snap.Config.WorkEndTime != "18:00" {
		t.Fatalf("state not restored: %+v", snap)
	}

	repo.saveErr = errors.New("disk full")
	if _, err := s.Mutate(context.Background(), func(st *State) error {
		st.Stops = nil
		return nil
	}); err != nil {
		t.Fatalf("save failure must not surface: %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("saves = %d, want 1", repo.saves)
	}
	if len(s.Snapshot().Stops) != 0 {
		t.Fatalf("in-memory state should be committed despite save failure")
	}
}

func TestOpenWithoutRepositoryUsesDefaultDriver(t *testing.T) {
	def := domain.DriverLocation{Coordinates: domain.Coordinates{Lat: 48.8566, Lng: 2.3522}}
	s, err := Open(context.Background(), nil, def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Snapshot().Driver; got.Lat != def.Lat || got.Lng != def.Lng {
		t.Fatalf("driver = %+v, want %+v", got, def)
	}
}

func TestMutateBumpsVersion(t *testing.T) {
	s := New(domain.DriverLocation{})
	ctx := context.Background()

	first, err := s.Mutate(ctx, func(st *State) error { return nil })
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if _, err := s.Mutate(ctx, func(st *State) error { return errors.New("rejected") }); err == nil {
		t.Fatalf("expected error")
	}
	second, err := s.Mutate(ctx, func(st *State) error { return nil })
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("versions = %d, %d; want 1, 2", first.Version, second.Version)
	}
	if got := s.Snapshot().Version; got != 2 {
		t.Fatalf("snapshot version = %d, want 2", got)
	}
}
