package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/db"
	"delivtrack/internal/ports"
)

func newTestRepo(t *testing.T) *SQLRouteStateRepository {
	t.Helper()

	conn, err := db.Open(db.SQLite, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := InitSchema(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewSQLRouteStateRepository(conn, db.SQLite)
}

func TestLoadEmptyDatabase(t *testing.T) {
	repo := newTestRepo(t)

	st, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Stops) != 0 || st.Driver != nil || st.Config.EndLocation != nil || len(st.SavedPlaces) != 0 {
		t.Fatalf("expected empty state, got %+v", st)
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	if err := InitSchema(context.Background(), repo.DB, db.SQLite); err != nil {
		t.Fatalf("second init: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.UnixMilli(1767254400000)
	completed := created.Add(40 * time.Minute)
	minutes := 17
	km := 5.9

	in := ports.RouteState{
		Stops: []domain.Stop{
			{
				ID:                   "b",
				Address:              "2 Rue B",
				CustomerName:         "Bea",
				Coordinates:          domain.Coordinates{Lat: 48.9, Lng: 2.4},
				Status:               domain.StatusPending,
				EstimatedTime:        &minutes,
				DistanceFromPrevious: &km,
				EstimateSource:       domain.SourceFallback,
				Priority:             1,
				CreatedAt:            created,
			},
			{
				ID:          "a",
				Coordinates: domain.Coordinates{Lat: 48.8, Lng: 2.3},
				Status:      domain.StatusCompleted,
				CreatedAt:   created,
				CompletedAt: &completed,
			},
		},
		Driver: &domain.DriverLocation{
			Coordinates: domain.Coordinates{Lat: 48.85, Lng: 2.35},
			Heading:     90,
			Speed:       36,
			LastUpdated: created,
		},
		Config: domain.RouteConfig{
			EndLocation: &domain.EndLocation{Coordinates: domain.Coordinates{Lat: 48.7, Lng: 2.2}, Address: "Depot"},
			WorkEndTime: "18:00",
		},
		SavedPlaces: []domain.SavedPlace{
			{ID: "p1", Name: "Depot", Address: "1 Depot Rd", Coordinates: domain.Coordinates{Lat: 48.7, Lng: 2.2}},
		},
	}

	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(out.Stops) != 2 || out.Stops[0].ID != "b" || out.Stops[1].ID != "a" {
		t.Fatalf("stops not restored in order: %+v", out.Stops)
	}

	b := out.Stops[0]
	if b.EstimatedTime == nil || *b.EstimatedTime != 17 || b.DistanceFromPrevious == nil || *b.DistanceFromPrevious != 5.9 {
		t.Errorf("estimate not restored: %+v", b)
	}
	if b.EstimateSource != domain.SourceFallback || b.Priority != 1 || b.CustomerName != "Bea" {
		t.Errorf("fields not restored: %+v", b)
	}
	if !b.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", b.CreatedAt, created)
	}

	a := out.Stops[1]
	if a.EstimatedTime != nil || a.DistanceFromPrevious != nil {
		t.Errorf("missing estimate should stay nil: %+v", a)
	}
	if a.CompletedAt == nil || !a.CompletedAt.Equal(completed) {
		t.Errorf("completed_at = %v, want %v", a.CompletedAt, completed)
	}

	if out.Driver == nil || out.Driver.Heading != 90 || out.Driver.Speed != 36 || out.Driver.Lat != 48.85 {
		t.Errorf("driver = %+v", out.Driver)
	}
	if out.Config.WorkEndTime != "18:00" || out.Config.EndLocation == nil || out.Config.EndLocation.Address != "Depot" {
		t.Errorf("config = %+v", out.Config)
	}
	if len(out.SavedPlaces) != 1 || out.SavedPlaces[0].Name != "Depot" {
		t.Errorf("saved places = %+v", out.SavedPlaces)
	}
}

func TestSaveReplacesPreviousState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := ports.RouteState{
		Stops:  []domain.Stop{{ID: "x", Status: domain.StatusPending}, {ID: "y", Status: domain.StatusPending}},
		Config: domain.RouteConfig{EndLocation: &domain.EndLocation{Address: "Depot"}, WorkEndTime: "17:00"},
	}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := ports.RouteState{Stops: []domain.Stop{{ID: "y", Status: domain.StatusInProgress}}}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Stops) != 1 || out.Stops[0].Status != domain.StatusInProgress {
		t.Fatalf("stops = %+v", out.Stops)
	}
	if out.Config.EndLocation != nil || out.Config.WorkEndTime != "" {
		t.Fatalf("config should be cleared, got %+v", out.Config)
	}
}

func TestSeedFromJSON(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "stops.json")
	seed := `[
		{"id": "s1", "address": " 1 Rue A ", "lat": 48.86, "lng": 2.35},
		{"id": "s2", "address": "2 Rue B", "lat": 48.87, "lng": 2.36}
	]`
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	n, err := SeedFromJSON(ctx, repo, path)
	if err != nil || n != 2 {
		t.Fatalf("seed = %d, %v; want 2, nil", n, err)
	}

	// Seeding again adds nothing.
	n, err = SeedFromJSON(ctx, repo, path)
	if err != nil || n != 0 {
		t.Fatalf("reseed = %d, %v; want 0, nil", n, err)
	}

	st, _ := repo.Load(ctx)
	if len(st.Stops) != 2 || st.Stops[0].Address != "1 Rue A" || st.Stops[0].Status != domain.StatusPending {
		t.Fatalf("stops = %+v", st.Stops)
	}
}

func TestSeedFromJSONRejectsBadCoordinates(t *testing.T) {
	repo := newTestRepo(t)

	path := filepath.Join(t.TempDir(), "stops.json")
	if err := os.WriteFile(path, []byte(`[{"id": "s1", "lat": 123, "lng": 2}]`), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	if _, err := SeedFromJSON(context.Background(), repo, path); err == nil {
		t.Fatalf("expected error")
	}
}
