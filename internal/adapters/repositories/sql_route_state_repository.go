package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/db"
	"delivtrack/internal/platform/obs"
	"delivtrack/internal/ports"
)

// SQL-backed implementation of the RouteStateRepository port.
// Timestamps are stored as unix milliseconds so both dialects share a schema.
type SQLRouteStateRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLRouteStateRepository(conn *sql.DB, dialect db.Dialect) *SQLRouteStateRepository {
	return &SQLRouteStateRepository{DB: conn, Dialect: dialect}
}

func (s *SQLRouteStateRepository) q(query string) string {
	return db.Rebind(s.Dialect, query)
}

// Load returns the saved working set. Missing rows leave the corresponding
// fields at their zero value.
func (s *SQLRouteStateRepository) Load(ctx context.Context) (_ ports.RouteState, err error) {
	defer obs.Time(ctx, "route_state.Load")(&err)

	if s.DB == nil {
		return ports.RouteState{}, errors.New("route state repository: DB is nil")
	}

	var st ports.RouteState

	if st.Stops, err = s.loadStops(ctx); err != nil {
		return ports.RouteState{}, err
	}
	if st.Driver, err = s.loadDriver(ctx); err != nil {
		return ports.RouteState{}, err
	}
	if st.Config, err = s.loadConfig(ctx); err != nil {
		return ports.RouteState{}, err
	}
	if st.SavedPlaces, err = s.loadPlaces(ctx); err != nil {
		return ports.RouteState{}, err
	}

	return st, nil
}

func (s *SQLRouteStateRepository) loadStops(ctx context.Context) ([]domain.Stop, error) {
	query := `
	SELECT
		id, address, customer_name, phone, notes, lat, lng, status,
		estimated_minutes, distance_km, estimate_source, priority,
		created_at, completed_at
	FROM stops
	ORDER BY position;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load stops: query stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 32)
	for rows.Next() {
		var (
			st          domain.Stop
			status      string
			source      string
			minutes     sql.NullInt64
			km          sql.NullFloat64
			createdAt   int64
			completedAt sql.NullInt64
		)
		if err := rows.Scan(
			&st.ID, &st.Address, &st.CustomerName, &st.Phone, &st.Notes,
			&st.Coordinates.Lat, &st.Coordinates.Lng, &status,
			&minutes, &km, &source, &st.Priority,
			&createdAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("load stops: scan row: %w", err)
		}

		if st.Status, err = domain.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("load stops: id=%q: %w", st.ID, err)
		}
		st.EstimateSource = domain.Source(source)
		if minutes.Valid {
			v := int(minutes.Int64)
			st.EstimatedTime = &v
		}
		if km.Valid {
			v := km.Float64
			st.DistanceFromPrevious = &v
		}
		st.CreatedAt = time.UnixMilli(createdAt)
		if completedAt.Valid {
			t := time.UnixMilli(completedAt.Int64)
			st.CompletedAt = &t
		}

		stops = append(stops, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load stops: row iteration: %w", err)
	}

	return stops, nil
}

func (s *SQLRouteStateRepository) loadDriver(ctx context.Context) (*domain.DriverLocation, error) {
	var (
		d           domain.DriverLocation
		lastUpdated int64
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT lat, lng, heading, speed, last_updated
	FROM driver_location
	WHERE id = 1;
	`).Scan(&d.Lat, &d.Lng, &d.Heading, &d.Speed, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}

	d.LastUpdated = time.UnixMilli(lastUpdated)
	return &d, nil
}

func (s *SQLRouteStateRepository) loadConfig(ctx context.Context) (domain.RouteConfig, error) {
	var (
		cfg        domain.RouteConfig
		endLat     sql.NullFloat64
		endLng     sql.NullFloat64
		endAddress string
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT work_end_time, end_lat, end_lng, end_address
	FROM route_config
	WHERE id = 1;
	`).Scan(&cfg.WorkEndTime, &endLat, &endLng, &endAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteConfig{}, nil
	}
	if err != nil {
		return domain.RouteConfig{}, fmt.Errorf("load route config: %w", err)
	}

	if endLat.Valid && endLng.Valid {
		cfg.EndLocation = &domain.EndLocation{
			Coordinates: domain.Coordinates{Lat: endLat.Float64, Lng: endLng.Float64},
			Address:     endAddress,
		}
	}
	return cfg, nil
}

func (s *SQLRouteStateRepository) loadPlaces(ctx context.Context) ([]domain.SavedPlace, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT id, name, address, lat, lng
	FROM saved_places
	ORDER BY position;
	`)
	if err != nil {
		return nil, fmt.Errorf("load saved places: query saved_places table: %w", err)
	}
	defer rows.Close()

	var places []domain.SavedPlace
	for rows.Next() {
		var p domain.SavedPlace
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Coordinates.Lat, &p.Coordinates.Lng); err != nil {
			return nil, fmt.Errorf("load saved places: scan row: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load saved places: row iteration: %w", err)
	}

	return places, nil
}

// Save replaces the stored working set in a single transaction.
func (s *SQLRouteStateRepository) Save(ctx context.Context, st ports.RouteState) (err error) {
	defer obs.Time(ctx, "route_state.Save")(&err)

	if s.DB == nil {
		return errors.New("route state repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save route state: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveStops(ctx, tx, st.Stops); err != nil {
		return err
	}
	if err := s.savePlaces(ctx, tx, st.SavedPlaces); err != nil {
		return err
	}

	if st.Driver != nil {
		d := st.Driver
		if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO driver_location (id, lat, lng, heading, speed, last_updated)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET lat = excluded.lat,
			lng = excluded.lng,
			heading = excluded.heading,
			speed = excluded.speed,
			last_updated = excluded.last_updated;
		`), d.Lat, d.Lng, d.Heading, d.Speed, d.LastUpdated.UnixMilli()); err != nil {
			return fmt.Errorf("save driver location: %w", err)
		}
	}

	var endLat, endLng sql.NullFloat64
	var endAddress string
	if e := st.Config.EndLocation; e != nil {
		endLat = sql.NullFloat64{Float64: e.Lat, Valid: true}
		endLng = sql.NullFloat64{Float64: e.Lng, Valid: true}
		endAddress = e.Address
	}
	if _, err := tx.ExecContext(ctx, s.q(`
	INSERT INTO route_config (id, work_end_time, end_lat, end_lng, end_address)
	VALUES (1, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET work_end_time = excluded.work_end_time,
		end_lat = excluded.end_lat,
		end_lng = excluded.end_lng,
		end_address = excluded.end_address;
	`), st.Config.WorkEndTime, endLat, endLng, endAddress); err != nil {
		return fmt.Errorf("save route config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save route state commit: %w", err)
	}

	return nil
}

func (s *SQLRouteStateRepository) saveStops(ctx context.Context, tx *sql.Tx, stops []domain.Stop) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stops;`); err != nil {
		return fmt.Errorf("save stops: clear table: %w", err)
	}

	if len(stops) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
	INSERT INTO stops (
		id, position, address, customer_name, phone, notes, lat, lng, status,
		estimated_minutes, distance_km, estimate_source, priority,
		created_at, completed_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save stops: db prepare: %w", err)
	}
	defer stmt.Close()

	for i, st := range stops {
		var minutes sql.NullInt64
		if st.EstimatedTime != nil {
			minutes = sql.NullInt64{Int64: int64(*st.EstimatedTime), Valid: true}
		}
		var km sql.NullFloat64
		if st.DistanceFromPrevious != nil {
			km = sql.NullFloat64{Float64: *st.DistanceFromPrevious, Valid: true}
		}
		var completedAt sql.NullInt64
		if st.CompletedAt != nil {
			completedAt = sql.NullInt64{Int64: st.CompletedAt.UnixMilli(), Valid: true}
		}

		if _, err := stmt.ExecContext(
			ctx,
			st.ID, i, st.Address, st.CustomerName, st.Phone, st.Notes,
			st.Coordinates.Lat, st.Coordinates.Lng, string(st.Status),
			minutes, km, string(st.EstimateSource), st.Priority,
			st.CreatedAt.UnixMilli(), completedAt,
		); err != nil {
			return fmt.Errorf("save stops: insert id=%q: %w", st.ID, err)
		}
	}

	return nil
}

func (s *SQLRouteStateRepository) savePlaces(ctx context.Context, tx *sql.Tx, places []domain.SavedPlace) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_places;`); err != nil {
		return fmt.Errorf("save places: clear table: %w", err)
	}

	if len(places) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
	INSERT INTO saved_places (id, position, name, address, lat, lng)
	VALUES (?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save places: db prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range places {
		if _, err := stmt.ExecContext(ctx, p.ID, i, p.Name, p.Address, p.Coordinates.Lat, p.Coordinates.Lng); err != nil {
			return fmt.Errorf("save places: insert id=%q: %w", p.ID, err)
		}
	}

	return nil
}
