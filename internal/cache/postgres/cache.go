// Package postgres provides a Postgres-backed preview cache.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previewd/previewd/internal/preview"
)

// CacheConfig controls the Postgres connection pool used for cache rows.
type CacheConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryExecCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Cache persists previews in the link_previews table, keyed by the exact
// URL string. Rows have no expiry; deleting a row is the only way to
// force a re-resolution.
type Cache struct {
	pool queryExecCloser
}

// NewCache creates a Postgres-backed Cache using the provided config.
func NewCache(ctx context.Context, cfg CacheConfig) (*Cache, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Cache{pool: pool}, nil
}

// NewCacheWithPool constructs a cache from an existing pool (primarily for testing).
func NewCacheWithPool(pool queryExecCloser) (*Cache, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Cache{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (c *Cache) Close() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Close()
}

// Get loads the cached preview for url. The second return value reports
// whether a row existed.
func (c *Cache) Get(ctx context.Context, url string) (preview.Preview, bool, error) {
	if c == nil || c.pool == nil {
		return preview.Preview{}, false, fmt.Errorf("preview cache is not configured")
	}
	var raw []byte
	row := c.pool.QueryRow(ctx, `SELECT preview FROM link_previews WHERE url = $1`, url)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return preview.Preview{}, false, nil
		}
		return preview.Preview{}, false, fmt.Errorf("select preview: %w", err)
	}
	var p preview.Preview
	if err := json.Unmarshal(raw, &p); err != nil {
		return preview.Preview{}, false, fmt.Errorf("decode preview: %w", err)
	}
	return p, true, nil
}

// Put upserts the preview row for url.
func (c *Cache) Put(ctx context.Context, url string, p preview.Preview) error {
	if c == nil || c.pool == nil {
		return fmt.Errorf("preview cache is not configured")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	query := `
INSERT INTO link_previews (url, preview, created_at)
VALUES ($1, $2, now())
ON CONFLICT (url) DO UPDATE SET preview = EXCLUDED.preview`
	if _, err := c.pool.Exec(ctx, query, url, raw); err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	return nil
}

// Delete removes the row for url. Missing rows are not an error.
func (c *Cache) Delete(ctx context.Context, url string) error {
	if c == nil || c.pool == nil {
		return fmt.Errorf("preview cache is not configured")
	}
	if _, err := c.pool.Exec(ctx, `DELETE FROM link_previews WHERE url = $1`, url); err != nil {
		return fmt.Errorf("delete preview: %w", err)
	}
	return nil
}
