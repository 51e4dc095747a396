// Package postgres provides a Postgres-backed content store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previewd/previewd/internal/preview"
)

// StoreConfig controls the Postgres connection pool used for content rows.
type StoreConfig struct {
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

// Store reads and conditionally rewrites content items. The conditional
// update keys on the content hash so a slow reconciliation never
// clobbers an item edited while the fetch was in flight.
type Store struct {
	pool queryExecCloser
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
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
	return &Store{pool: pool}, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(pool queryExecCloser) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// ReadItem loads the current state of a content item.
func (s *Store) ReadItem(ctx context.Context, id string) (preview.ContentItem, error) {
	if s == nil || s.pool == nil {
		return preview.ContentItem{}, fmt.Errorf("content store is not configured")
	}
	var item preview.ContentItem
	row := s.pool.QueryRow(ctx, `
SELECT id, realm_id, content, rendered, content_hash
FROM content_items
WHERE id = $1`, id)
	if err := row.Scan(&item.ID, &item.RealmID, &item.Content, &item.Rendered, &item.Snapshot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return preview.ContentItem{}, preview.ErrItemNotFound
		}
		return preview.ContentItem{}, fmt.Errorf("select content item: %w", err)
	}
	return item, nil
}

// ApplyPreview rewrites the rendered column only when the stored content
// hash still equals expectedSnapshot. Zero rows affected means the item
// changed or disappeared after the request was enqueued.
func (s *Store) ApplyPreview(ctx context.Context, itemID, expectedSnapshot, rendered string) (preview.ApplyOutcome, error) {
	if s == nil || s.pool == nil {
		return "", fmt.Errorf("content store is not configured")
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE content_items
SET rendered = $3, updated_at = now()
WHERE id = $1 AND content_hash = $2`, itemID, expectedSnapshot, rendered)
	if err != nil {
		return "", fmt.Errorf("update content item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return preview.ApplyStale, nil
	}
	return preview.ApplyApplied, nil
}
