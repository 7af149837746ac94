package memory

import (
	"context"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// MoverRegistry is an in-memory implementation of storage.MoverRegistry.
type MoverRegistry struct {
	mu     sync.RWMutex
	movers map[string]*domain.MoverWallet // keyed by wallet_address
}

// NewMoverRegistry creates a new in-memory mover registry.
func NewMoverRegistry() *MoverRegistry {
	return &MoverRegistry{
		movers: make(map[string]*domain.MoverWallet),
	}
}

// TrackedAmong returns the subset of wallets present in the registry.
func (s *MoverRegistry) TrackedAmong(_ context.Context, wallets []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracked := make(map[string]struct{})
	for _, w := range wallets {
		if _, exists := s.movers[w]; exists {
			tracked[w] = struct{}{}
		}
	}
	return tracked, nil
}

// CountTracked counts distinct wallets present in the registry.
func (s *MoverRegistry) CountTracked(ctx context.Context, wallets []string) (int64, error) {
	tracked, err := s.TrackedAmong(ctx, wallets)
	if err != nil {
		return 0, err
	}
	return int64(len(tracked)), nil
}

// Upsert adds or replaces registry entries.
func (s *MoverRegistry) Upsert(_ context.Context, movers []*domain.MoverWallet) error {
	for _, m := range movers {
		if m == nil || m.WalletAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range movers {
		moverCopy := *m
		if existing, ok := s.movers[m.WalletAddress]; ok {
			moverCopy.CreatedAt = existing.CreatedAt
		} else if moverCopy.CreatedAt.IsZero() {
			moverCopy.CreatedAt = time.Now().UTC()
		}
		s.movers[m.WalletAddress] = &moverCopy
	}
	return nil
}

// Get retrieves a mover. Returns ErrNotFound if not exists.
func (s *MoverRegistry) Get(_ context.Context, walletAddress string) (*domain.MoverWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.movers[walletAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	moverCopy := *m
	return &moverCopy, nil
}

var _ storage.MoverRegistry = (*MoverRegistry)(nil)
