package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

type dailyVolumeKey struct {
	tokenAddress string
	day          int64
}

// DailyVolumeStore is an in-memory implementation of storage.DailyVolumeStore.
type DailyVolumeStore struct {
	mu      sync.RWMutex
	volumes map[dailyVolumeKey]*domain.DailyVolume
}

// NewDailyVolumeStore creates a new in-memory daily volume store.
func NewDailyVolumeStore() *DailyVolumeStore {
	return &DailyVolumeStore{
		volumes: make(map[dailyVolumeKey]*domain.DailyVolume),
	}
}

// Upsert writes volumes keyed by (token_address, day).
func (s *DailyVolumeStore) Upsert(_ context.Context, volumes []*domain.DailyVolume) error {
	for _, v := range volumes {
		if v == nil || v.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range volumes {
		day := domain.StartOfDay(v.Day)
		volCopy := *v
		volCopy.Day = day
		volCopy.LogoURI = cloneString(v.LogoURI)
		if volCopy.UpdatedAt.IsZero() {
			volCopy.UpdatedAt = time.Now().UTC()
		}
		s.volumes[dailyVolumeKey{v.TokenAddress, day.Unix()}] = &volCopy
	}
	return nil
}

// TopByDay returns the highest volumes of day, highest first.
func (s *DailyVolumeStore) TopByDay(_ context.Context, day time.Time, limit int) ([]*domain.DailyVolume, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}
	dayUnix := domain.StartOfDay(day).Unix()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyVolume
	for k, v := range s.volumes {
		if k.day == dayUnix {
			volCopy := *v
			result = append(result, &volCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Volume24hUSD == result[j].Volume24hUSD {
			return result[i].TokenAddress < result[j].TokenAddress
		}
		return result[i].Volume24hUSD > result[j].Volume24hUSD
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.DailyVolumeStore = (*DailyVolumeStore)(nil)
