// Package memory provides an in-process content store, used in tests and
// single-node deployments.
package memory

import (
	"context"
	"sync"

	"github.com/previewd/previewd/internal/preview"
)

// Store holds content items in a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	items map[string]preview.ContentItem
}

// New creates an empty store.
func New() *Store {
	return &Store{items: make(map[string]preview.ContentItem)}
}

// SaveItem inserts or replaces an item.
func (s *Store) SaveItem(item preview.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// RemoveItem deletes an item if present.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// ReadItem returns the current state of an item.
func (s *Store) ReadItem(_ context.Context, id string) (preview.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return preview.ContentItem{}, preview.ErrItemNotFound
	}
	return item, nil
}

// ApplyPreview writes rendered onto the item only if its snapshot still
// matches expectedSnapshot. A mismatch or a missing item reports the
// apply as stale without mutating anything.
func (s *Store) ApplyPreview(_ context.Context, itemID, expectedSnapshot, rendered string) (preview.ApplyOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.Snapshot != expectedSnapshot {
		return preview.ApplyStale, nil
	}
	item.Rendered = rendered
	s.items[itemID] = item
	return preview.ApplyApplied, nil
}
