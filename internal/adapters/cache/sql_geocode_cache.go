package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/db"
	"delivtrack/internal/platform/obs"
)

// SQLGeocodeCache is a SQL-backed cache mapping addresses to coordinates.
// Address keys are expected to be normalized by the caller.
type SQLGeocodeCache struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLGeocodeCache(conn *sql.DB, dialect db.Dialect) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: conn, Dialect: dialect}
}

// Fetch cached coordinates for the given addresses.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	if len(addresses) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	seen := map[string]struct{}{}
	args := make([]any, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}

		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		args = append(args, a)
	}

	if len(args) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := db.Rebind(s.Dialect, fmt.Sprintf(`
	SELECT address, lng, lat
	FROM geocode_cache
	WHERE address IN (%s);
	`, db.Placeholders(len(args))))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(args))
	for rows.Next() {
		var addr string
		var lng, lat float64
		if err := rows.Scan(&addr, &lng, &lat); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = domain.Coordinates{Lat: lat, Lng: lng}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, db.Rebind(s.Dialect, `
	INSERT INTO geocode_cache (address, lng, lat)
	VALUES (?, ?, ?)
	ON CONFLICT (address) DO UPDATE
	SET lng = excluded.lng,
		lat = excluded.lat;
	`))
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for addr, c := range results {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, addr, c.Lng, c.Lat); err != nil {
			return fmt.Errorf("insert geocode cache address=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
