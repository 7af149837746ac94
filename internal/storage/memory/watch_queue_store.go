package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// WatchQueueStore is an in-memory implementation of storage.WatchQueueStore.
type WatchQueueStore struct {
	mu      sync.RWMutex
	entries map[string]*domain.WatchEntry // keyed by token_address
}

// NewWatchQueueStore creates a new in-memory watch queue.
func NewWatchQueueStore() *WatchQueueStore {
	return &WatchQueueStore{
		entries: make(map[string]*domain.WatchEntry),
	}
}

// Touch records activity, creating an entry that is due immediately.
func (s *WatchQueueStore) Touch(_ context.Context, tokenAddress string, at time.Time) error {
	if tokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[tokenAddress]
	if !exists {
		s.entries[tokenAddress] = &domain.WatchEntry{
			TokenAddress:   tokenAddress,
			LastEnrichedAt: time.Unix(0, 0).UTC(),
			LastActiveAt:   at,
			CreatedAt:      at,
		}
		return nil
	}
	if at.After(e.LastActiveAt) {
		e.LastActiveAt = at
	}
	return nil
}

// Due returns due entries, least recently enriched first.
func (s *WatchQueueStore) Due(_ context.Context, now time.Time, cooldown, activityWindow time.Duration, limit int) ([]*domain.WatchEntry, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WatchEntry
	for _, e := range s.entries {
		if e.IsDue(now, cooldown, activityWindow) {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastEnrichedAt.Equal(result[j].LastEnrichedAt) {
			return result[i].TokenAddress < result[j].TokenAddress
		}
		return result[i].LastEnrichedAt.Before(result[j].LastEnrichedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Renew advances LastEnrichedAt. Returns ErrNotFound if not exists.
func (s *WatchQueueStore) Renew(_ context.Context, tokenAddress string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[tokenAddress]
	if !exists {
		return storage.ErrNotFound
	}
	if at.After(e.LastEnrichedAt) {
		e.LastEnrichedAt = at
	}
	return nil
}

// Get retrieves an entry. Returns ErrNotFound if not exists.
func (s *WatchQueueStore) Get(_ context.Context, tokenAddress string) (*domain.WatchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	entryCopy := *e
	return &entryCopy, nil
}

// contains reports whether the token is watched. Used by joins in other memory stores.
func (s *WatchQueueStore) contains(tokenAddress string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[tokenAddress]
	return ok
}

var _ storage.WatchQueueStore = (*WatchQueueStore)(nil)
