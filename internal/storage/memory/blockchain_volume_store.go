package memory

import (
	"context"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// BlockchainVolumeStore is an in-memory implementation of storage.BlockchainVolumeStore.
type BlockchainVolumeStore struct {
	mu      sync.RWMutex
	samples map[sampleKey]*domain.BlockchainVolumeSample
}

// NewBlockchainVolumeStore creates a new in-memory blockchain volume store.
func NewBlockchainVolumeStore() *BlockchainVolumeStore {
	return &BlockchainVolumeStore{
		samples: make(map[sampleKey]*domain.BlockchainVolumeSample),
	}
}

// Upsert writes a sample keyed by (day, chain).
func (s *BlockchainVolumeStore) Upsert(_ context.Context, smp *domain.BlockchainVolumeSample) error {
	if smp == nil || smp.Chain == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sampleCopy := *smp
	sampleCopy.Day = domain.StartOfDay(smp.Day)
	if sampleCopy.RecordedAt.IsZero() {
		sampleCopy.RecordedAt = time.Now().UTC()
	}
	s.samples[sampleKey{smp.Chain, sampleCopy.Day.Unix()}] = &sampleCopy
	return nil
}

// LatestAtOrBefore retrieves the newest sample with Day <= day.
func (s *BlockchainVolumeStore) LatestAtOrBefore(_ context.Context, chain string, day time.Time) (*domain.BlockchainVolumeSample, error) {
	cutoff := domain.StartOfDay(day).Unix()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.BlockchainVolumeSample
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

var _ storage.BlockchainVolumeStore = (*BlockchainVolumeStore)(nil)
