package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/previewd/previewd/internal/preview"
)

func TestReadItem(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, realm_id, content, rendered, content_hash").
		WithArgs("m1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "realm_id", "content", "rendered", "content_hash"}).
			AddRow("m1", "realm-1", "hello https://example.org", "<p>hello</p>", "snap-1"))

	item, err := store.ReadItem(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, "m1", item.ID)
	require.Equal(t, "snap-1", item.Snapshot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadItemNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, realm_id, content, rendered, content_hash").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "realm_id", "content", "rendered", "content_hash"}))

	_, err = store.ReadItem(context.Background(), "missing")
	require.ErrorIs(t, err, preview.ErrItemNotFound)
}

func TestApplyPreviewApplied(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE content_items").
		WithArgs("m1", "snap-1", "<p>rendered</p>").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	outcome, err := store.ApplyPreview(context.Background(), "m1", "snap-1", "<p>rendered</p>")
	require.NoError(t, err)
	require.Equal(t, preview.ApplyApplied, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPreviewStaleWhenNoRowsMatch(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE content_items").
		WithArgs("m1", "snap-old", "<p>rendered</p>").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	outcome, err := store.ApplyPreview(context.Background(), "m1", "snap-old", "<p>rendered</p>")
	require.NoError(t, err)
	require.Equal(t, preview.ApplyStale, outcome)
}

func TestApplyPreviewExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE content_items").
		WithArgs("m1", "snap-1", "<p>rendered</p>").
		WillReturnError(errors.New("connection closed"))

	_, err = store.ApplyPreview(context.Background(), "m1", "snap-1", "<p>rendered</p>")
	require.Error(t, err)
}
