package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/db"
)

// Initialize the database schema for the given dialect.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	// SQLite REAL is 8 bytes; the Postgres equivalent is DOUBLE PRECISION.
	float := "REAL"
	if dialect == db.Postgres {
		float = "DOUBLE PRECISION"
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createStopsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS stops (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		lat %[1]s NOT NULL,
		lng %[1]s NOT NULL,
		status TEXT NOT NULL,
		estimated_minutes INTEGER,
		distance_km %[1]s,
		estimate_source TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		completed_at BIGINT
	);
	`, float)

	createDriverQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS driver_location (
		id INTEGER PRIMARY KEY,
		lat %[1]s NOT NULL,
		lng %[1]s NOT NULL,
		heading %[1]s NOT NULL DEFAULT 0,
		speed %[1]s NOT NULL DEFAULT 0,
		last_updated BIGINT NOT NULL
	);
	`, float)

	createConfigQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS route_config (
		id INTEGER PRIMARY KEY,
		work_end_time TEXT NOT NULL DEFAULT '',
		end_lat %[1]s,
		end_lng %[1]s,
		end_address TEXT NOT NULL DEFAULT ''
	);
	`, float)

	createPlacesQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS saved_places (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		lat %[1]s NOT NULL,
		lng %[1]s NOT NULL
	);
	`, float)

	createLegCacheQuery := `
	CREATE TABLE IF NOT EXISTS leg_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		traffic_seconds INTEGER,
		stored_at BIGINT NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`

	createGeocodeCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lng %[1]s NOT NULL,
		lat %[1]s NOT NULL
	);
	`, float)

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_stops_position
	ON stops(position);
	`

	statements := []string{
		createStopsQuery,
		createDriverQuery,
		createConfigQuery,
		createPlacesQuery,
		createLegCacheQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type StopSeed struct {
	ID           string  `json:"id"`
	Address      string  `json:"address"`
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	Notes        string  `json:"notes"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// SeedFromJSON appends pending stops from a JSON file to the saved route.
// Stops whose id already exists are left untouched.
func SeedFromJSON(ctx context.Context, repo *SQLRouteStateRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed stops: read %q: %w", jsonPath, err)
	}

	var data []StopSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed stops: parse json: %w", err)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed stops: %w", err)
	}

	existing := make(map[string]struct{}, len(state.Stops))
	for _, s := range state.Stops {
		existing[s.ID] = struct{}{}
	}

	now := time.Now()
	added := 0
	for i, item := range data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return 0, fmt.Errorf("seed stops: item at index %d: id cannot be empty", i+1)
		}

		coords := domain.Coordinates{Lat: item.Lat, Lng: item.Lng}
		if err := coords.Validate(); err != nil {
			return 0, fmt.Errorf("seed stops: item id=%q: %w", id, err)
		}

		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}

		state.Stops = append(state.Stops, domain.Stop{
			ID:           id,
			Address:      strings.TrimSpace(item.Address),
			CustomerName: strings.TrimSpace(item.CustomerName),
			Phone:        strings.TrimSpace(item.Phone),
			Notes:        strings.TrimSpace(item.Notes),
			Coordinates:  coords,
			Status:       domain.StatusPending,
			CreatedAt:    now,
		})
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := repo.Save(ctx, state); err != nil {
		return 0, fmt.Errorf("seed stops: %w", err)
	}

	return added, nil
}
