package memory

import (
	"context"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// AlphaMetricStore is an in-memory implementation of storage.AlphaMetricStore.
type AlphaMetricStore struct {
	mu      sync.RWMutex
	metrics map[string]*domain.AlphaMetric // keyed by token_address
}

// NewAlphaMetricStore creates a new in-memory alpha metric store.
func NewAlphaMetricStore() *AlphaMetricStore {
	return &AlphaMetricStore{
		metrics: make(map[string]*domain.AlphaMetric),
	}
}

// Patch applies a column-level upsert under the store lock.
func (s *AlphaMetricStore) Patch(_ context.Context, tokenAddress string, p domain.AlphaMetricPatch) error {
	if tokenAddress == "" {
		return storage.ErrInvalidInput
	}
	if p.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	m, exists := s.metrics[tokenAddress]
	if !exists {
		m = &domain.AlphaMetric{TokenAddress: tokenAddress, CreatedAt: now}
		s.metrics[tokenAddress] = m
	}
	p.Apply(m)
	m.UpdatedAt = now
	return nil
}

// Get retrieves a metric. Returns ErrNotFound if not exists.
func (s *AlphaMetricStore) Get(_ context.Context, tokenAddress string) (*domain.AlphaMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.metrics[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyMetric(m), nil
}

// GetByAddresses retrieves metrics for the given tokens.
func (s *AlphaMetricStore) GetByAddresses(_ context.Context, tokenAddresses []string) ([]*domain.AlphaMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AlphaMetric
	seen := make(map[string]struct{}, len(tokenAddresses))
	for _, a := range tokenAddresses {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		if m, exists := s.metrics[a]; exists {
			result = append(result, copyMetric(m))
		}
	}
	return result, nil
}

func copyMetric(m *domain.AlphaMetric) *domain.AlphaMetric {
	metricCopy := *m
	metricCopy.MunScore = cloneFloat(m.MunScore)
	metricCopy.RiskScore = cloneFloat(m.RiskScore)
	return &metricCopy
}

var _ storage.AlphaMetricStore = (*AlphaMetricStore)(nil)
