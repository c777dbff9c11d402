package cache

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

// SQLLegCache is a SQL-backed cache for origin->destination legs.
// Rows older than MaxAge are treated as misses; zero keeps them forever.
type SQLLegCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	MaxAge  time.Duration
	Now     func() time.Time
}

func NewSQLLegCache(conn *sql.DB, dialect db.Dialect, maxAge time.Duration) *SQLLegCache {
	return &SQLLegCache{DB: conn, Dialect: dialect, MaxAge: maxAge, Now: time.Now}
}

func (s *SQLLegCache) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SQLLegCache) Get(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ ports.RouteLeg, _ bool, err error) {
	defer obs.Time(ctx, "leg.cache.Get")(&err)

	if s.DB == nil {
		return ports.RouteLeg{}, false, errors.New("leg cache: db is nil")
	}

	q := db.Rebind(s.Dialect, `
	SELECT distance_meters, duration_seconds, traffic_seconds, stored_at
	FROM leg_cache
	WHERE origin = ? AND destination = ?;
	`)

	var (
		leg      ports.RouteLeg
		traffic  sql.NullInt64
		storedAt int64
	)
	err = s.DB.QueryRowContext(ctx, q, origin.Key(), destination.Key()).
		Scan(&leg.DistanceMeters, &leg.DurationSeconds, &traffic, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RouteLeg{}, false, nil
	}
	if err != nil {
		return ports.RouteLeg{}, false, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}

	if s.MaxAge > 0 && s.now().Sub(time.Unix(storedAt, 0)) > s.MaxAge {
		return ports.RouteLeg{}, false, nil
	}

	if traffic.Valid {
		v := int(traffic.Int64)
		leg.DurationInTrafficSeconds = &v
	}

	return leg, true, nil
}

func (s *SQLLegCache) Put(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	leg ports.RouteLeg,
) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}

	var traffic sql.NullInt64
	if leg.DurationInTrafficSeconds != nil {
		traffic = sql.NullInt64{Int64: int64(*leg.DurationInTrafficSeconds), Valid: true}
	}

	q := db.Rebind(s.Dialect, `
	INSERT INTO leg_cache (origin, destination, distance_meters, duration_seconds, traffic_seconds, stored_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = excluded.distance_meters,
		duration_seconds = excluded.duration_seconds,
		traffic_seconds = excluded.traffic_seconds,
		stored_at = excluded.stored_at;
	`)

	if _, err := s.DB.ExecContext(
		ctx, q,
		origin.Key(), destination.Key(),
		leg.DistanceMeters, leg.DurationSeconds, traffic, s.now().Unix(),
	); err != nil {
		return fmt.Errorf("insert leg cache origin=%s destination=%s: %w", origin.Key(), destination.Key(), err)
	}

	return nil
}
