package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/previewd/previewd/internal/preview"
)

func TestReadItem(t *testing.T) {
	t.Parallel()

	store := New()
	store.SaveItem(preview.ContentItem{ID: "m1", Content: "hello", Snapshot: "snap-1"})

	item, err := store.ReadItem(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, "hello", item.Content)

	_, err = store.ReadItem(context.Background(), "missing")
	require.ErrorIs(t, err, preview.ErrItemNotFound)
}

func TestApplyPreviewMatchingSnapshot(t *testing.T) {
	t.Parallel()

	store := New()
	store.SaveItem(preview.ContentItem{ID: "m1", Content: "hello", Snapshot: "snap-1"})

	outcome, err := store.ApplyPreview(context.Background(), "m1", "snap-1", "<p>hello</p>")
	require.NoError(t, err)
	require.Equal(t, preview.ApplyApplied, outcome)

	item, err := store.ReadItem(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, "<p>hello</p>", item.Rendered)
}

func TestApplyPreviewStaleSnapshot(t *testing.T) {
	t.Parallel()

	store := New()
	store.SaveItem(preview.ContentItem{ID: "m1", Content: "edited", Snapshot: "snap-2", Rendered: "original"})

	outcome, err := store.ApplyPreview(context.Background(), "m1", "snap-1", "<p>hello</p>")
	require.NoError(t, err)
	require.Equal(t, preview.ApplyStale, outcome)

	item, err := store.ReadItem(context.Background(), "m1")
	require.NoError(t, err)
	require.Equal(t, "original", item.Rendered, "a stale apply must not mutate the item")
}

func TestApplyPreviewMissingItemIsStale(t *testing.T) {
	t.Parallel()

	store := New()
	outcome, err := store.ApplyPreview(context.Background(), "gone", "snap-1", "<p>x</p>")
	require.NoError(t, err)
	require.Equal(t, preview.ApplyStale, outcome)
}
