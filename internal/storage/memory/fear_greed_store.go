package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

type sampleKey struct {
	chain string
	day   int64
}

// FearGreedStore is an in-memory implementation of storage.FearGreedStore.
type FearGreedStore struct {
	mu      sync.RWMutex
	samples map[sampleKey]*domain.FearGreedSample
}

// NewFearGreedStore creates a new in-memory fear/greed store.
func NewFearGreedStore() *FearGreedStore {
	return &FearGreedStore{
		samples: make(map[sampleKey]*domain.FearGreedSample),
	}
}

// Upsert writes samples keyed by (day, chain).
func (s *FearGreedStore) Upsert(_ context.Context, samples []*domain.FearGreedSample) error {
	for _, smp := range samples {
		if smp == nil || smp.Chain == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, smp := range samples {
		sampleCopy := *smp
		sampleCopy.Day = domain.StartOfDay(smp.Day)
		if sampleCopy.RecordedAt.IsZero() {
			sampleCopy.RecordedAt = time.Now().UTC()
		}
		s.samples[sampleKey{smp.Chain, sampleCopy.Day.Unix()}] = &sampleCopy
	}
	return nil
}

// GetByDay retrieves the sample of chain for day. Returns ErrNotFound if not exists.
func (s *FearGreedStore) GetByDay(_ context.Context, chain string, day time.Time) (*domain.FearGreedSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	smp, exists := s.samples[sampleKey{chain, domain.StartOfDay(day).Unix()}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	sampleCopy := *smp
	return &sampleCopy, nil
}

// LatestAtOrBefore retrieves the newest sample with Day <= day.
func (s *FearGreedStore) LatestAtOrBefore(_ context.Context, chain string, day time.Time) (*domain.FearGreedSample, error) {
	cutoff := domain.StartOfDay(day).Unix()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.FearGreedSample
	for k, smp := range s.samples {
		if k.chain != chain || k.day > cutoff {
			continue
		}
		if best == nil || smp.Day.After(best.Day) {
			best = smp
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	sampleCopy := *best
	return &sampleCopy, nil
}

// History returns up to limit samples of chain, newest first.
func (s *FearGreedStore) History(_ context.Context, chain string, limit int) ([]*domain.FearGreedSample, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FearGreedSample
	for k, smp := range s.samples {
		if k.chain == chain {
			sampleCopy := *smp
			result = append(result, &sampleCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day.After(result[j].Day)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.FearGreedStore = (*FearGreedStore)(nil)
