// Package cache stores routed legs in SQLite so repeated searches around the
// same start do not hit the routing provider again.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ColinToft/JogCoach/internal/clients/osrm"
	"github.com/ColinToft/JogCoach/internal/provider"
	"github.com/ColinToft/JogCoach/internal/util/geo"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS route_legs (
	leg_key    TEXT PRIMARY KEY,
	geometry   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

// LegCache is a persistent store of routed legs.
type LegCache struct {
	db     *sql.DB
	ttl    time.Duration
	logger log.Logger
}

// Open opens (or creates) the cache database at path. Use ":memory:" for a
// process local cache. A zero ttl keeps entries forever.
func Open(path string, ttl time.Duration, logger log.Logger) (*LegCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open leg cache: %w", err)
	}
	// one connection keeps ":memory:" databases shared and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping leg cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create leg cache schema: %w", err)
	}

	return &LegCache{
		db:     db,
		ttl:    ttl,
		logger: log.With(logger, "component", "legcache"),
	}, nil
}

func (c *LegCache) Close() error {
	return c.db.Close()
}

// LegKey rounds both endpoints to five decimals (about one metre).
func LegKey(a, b geo.Coordinate, profile provider.Profile) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f|%s", a.Lat, a.Lon, b.Lat, b.Lon, profile.Key())
}

// Wrap returns a Router that serves legs from the cache when present and
// otherwise asks next and stores its answer. Cache errors are logged and
// never fail the call.
func (c *LegCache) Wrap(next provider.Router) provider.Router {
	return provider.RouterFunc(func(ctx context.Context, a, b geo.Coordinate, profile provider.Profile) ([]geo.Coordinate, error) {
		key := LegKey(a, b, profile)

		if path, ok := c.get(ctx, key); ok {
			return path, nil
		}

		path, err := next.Route(ctx, a, b, profile)
		if err != nil {
			return nil, err
		}

		c.put(ctx, key, path)
		return path, nil
	})
}

type cachedSource struct {
	cache *LegCache
	next  provider.RouterSource
}

// WrapSource caches the legs of every router handed out by next.
func (c *LegCache) WrapSource(next provider.RouterSource) provider.RouterSource {
	return cachedSource{cache: c, next: next}
}

func (s cachedSource) RouterFor(ctx context.Context, start geo.Coordinate, distanceKm float64) (provider.Router, error) {
	router, err := s.next.RouterFor(ctx, start, distanceKm)
	if err != nil {
		return nil, err
	}
	return s.cache.Wrap(router), nil
}

func (c *LegCache) get(ctx context.Context, key string) ([]geo.Coordinate, bool) {
	var (
		geometry  string
		createdAt int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT geometry, created_at FROM route_legs WHERE leg_key = ?`, key).
		Scan(&geometry, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		level.Warn(c.logger).Log("during", "get", "key", key, "err", err)
		return nil, false
	}

	if c.ttl > 0 && time.Since(time.Unix(createdAt, 0)) > c.ttl {
		return nil, false
	}

	path, err := osrm.DecodeGeometry(geometry)
	if err != nil || len(path) < 2 {
		level.Warn(c.logger).Log("during", "decode", "key", key, "err", err)
		return nil, false
	}
	return path, true
}

func (c *LegCache) put(ctx context.Context, key string, path []geo.Coordinate) {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO route_legs (leg_key, geometry, created_at) VALUES (?, ?, ?)`,
		key, osrm.EncodeGeometry(path), time.Now().Unix())
	if err != nil {
		level.Warn(c.logger).Log("during", "put", "key", key, "err", err)
	}
}

// Len returns the number of stored legs.
func (c *LegCache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM route_legs`).Scan(&n)
	return n, err
}
