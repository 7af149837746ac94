package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

type pricePointKey struct {
	tokenAddress string
	ts           int64
}

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu     sync.RWMutex
	points map[pricePointKey]*domain.PricePoint
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		points: make(map[pricePointKey]*domain.PricePoint),
	}
}

// InsertBulk adds points, replacing existing (token, timestamp) entries.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	for _, p := range points {
		if p == nil || p.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		pointCopy := *p
		pointCopy.Timestamp = p.Timestamp.UTC().Truncate(time.Second)
		s.points[pricePointKey{p.TokenAddress, pointCopy.Timestamp.Unix()}] = &pointCopy
	}
	return nil
}

// DailyCloses returns the last price of each UTC day in [from, to), day ASC.
func (s *PriceHistoryStore) DailyCloses(_ context.Context, tokenAddress string, from, to time.Time) ([]domain.DailyClose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := make(map[int64]*domain.PricePoint)
	for k, p := range s.points {
		if k.tokenAddress != tokenAddress {
			continue
		}
		if p.Timestamp.Before(from) || !p.Timestamp.Before(to) {
			continue
		}
		day := domain.StartOfDay(p.Timestamp).Unix()
		if cur, ok := last[day]; !ok || p.Timestamp.After(cur.Timestamp) {
			last[day] = p
		}
	}

	result := make([]domain.DailyClose, 0, len(last))
	for day, p := range last {
		result = append(result, domain.DailyClose{Day: time.Unix(day, 0).UTC(), Price: p.Price})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day.Before(result[j].Day)
	})
	return result, nil
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)
