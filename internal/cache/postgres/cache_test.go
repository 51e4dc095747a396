package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/previewd/previewd/internal/preview"
)

func TestCacheGetHit(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache, err := NewCacheWithPool(mock)
	require.NoError(t, err)

	stored := preview.NewPhoto("https://i.example.org/a.jpg", "Photo", "")
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT preview FROM link_previews").
		WithArgs("https://example.org/a").
		WillReturnRows(pgxmock.NewRows([]string{"preview"}).AddRow(raw))

	got, ok, err := cache.Get(context.Background(), "https://example.org/a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stored, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetMiss(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache, err := NewCacheWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT preview FROM link_previews").
		WithArgs("https://example.org/missing").
		WillReturnRows(pgxmock.NewRows([]string{"preview"}))

	_, ok, err := cache.Get(context.Background(), "https://example.org/missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachePutUpserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache, err := NewCacheWithPool(mock)
	require.NoError(t, err)

	p := preview.None()
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO link_previews").
		WithArgs("https://example.org/dead", raw).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, cache.Put(context.Background(), "https://example.org/dead", p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache, err := NewCacheWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM link_previews").
		WithArgs("https://example.org/a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, cache.Delete(context.Background(), "https://example.org/a"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache, err := NewCacheWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT preview FROM link_previews").
		WithArgs("https://example.org/a").
		WillReturnError(errors.New("connection closed"))

	_, _, err = cache.Get(context.Background(), "https://example.org/a")
	require.Error(t, err)
}

func TestNewCacheWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewCacheWithPool(nil)
	require.Error(t, err)
}
