package memory

import (
	"context"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*domain.TokenProjection // keyed by address
	now    func() time.Time
}

// NewTokenStore creates a new in-memory token projection store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]*domain.TokenProjection),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// row returns the projection for address, creating it. Caller holds the write lock.
func (s *TokenStore) row(address string) *domain.TokenProjection {
	p, exists := s.tokens[address]
	if !exists {
		p = &domain.TokenProjection{Address: address}
		s.tokens[address] = p
	}
	p.UpdatedAt = s.now()
	return p
}

// UpsertOverview writes overview columns.
func (s *TokenStore) UpsertOverview(_ context.Context, o *domain.TokenOverview) error {
	if o == nil || o.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.row(o.Address)
	p.Name = o.Name
	p.Symbol = o.Symbol
	p.LogoURI = cloneString(o.LogoURI)
	p.Decimals = o.Decimals
	p.TotalSupply = cloneFloat(o.TotalSupply)
	setFloat(&p.Price, o.Price)
	p.History24hPrice = cloneFloat(o.History24hPrice)
	p.PriceChange24hPercent = cloneFloat(o.PriceChange24hPercent)
	p.WebsiteURL = cloneString(o.WebsiteURL)
	p.Socials = cloneSocials(o.Socials)
	setFloat(&p.MarketCap, o.MarketCap)
	setFloat(&p.Liquidity, o.Liquidity)
	setInt64(&p.Holders, o.Holders)
	setFloat(&p.Volume24hUSD, o.Volume24hUSD)
	setFloat(&p.Volume24hChangePercent, o.Volume24hChangePercent)
	return nil
}

// UpsertMarket writes market columns. Nil fields keep the stored value.
func (s *TokenStore) UpsertMarket(_ context.Context, m *domain.TokenMarket) error {
	if m == nil || m.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.row(m.Address)
	setFloat(&p.Price, m.Price)
	setFloat(&p.Liquidity, m.Liquidity)
	setFloat(&p.MarketCap, m.MarketCap)
	setFloat(&p.FDV, m.FDV)
	setFloat(&p.CirculatingSupply, m.CirculatingSupply)
	setInt64(&p.Holders, m.Holders)
	return nil
}

// UpsertTrade writes trade columns. Nil fields keep the stored value.
func (s *TokenStore) UpsertTrade(_ context.Context, t *domain.TokenTrade) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.row(t.Address)
	setFloat(&p.Volume24hUSD, t.Volume24hUSD)
	setFloat(&p.Volume24hChangePercent, t.Volume24hChangePercent)
	setInt64(&p.Trades24h, t.Trades24h)
	setInt64(&p.Buys24h, t.Buys24h)
	setInt64(&p.Sells24h, t.Sells24h)
	setInt64(&p.UniqueWallets24h, t.UniqueWallets24h)
	return nil
}

// UpsertMeta writes identity columns.
func (s *TokenStore) UpsertMeta(_ context.Context, metas []*domain.TokenMeta) error {
	for _, m := range metas {
		if m == nil || m.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range metas {
		p := s.row(m.Address)
		p.Name = m.Name
		p.Symbol = m.Symbol
		p.LogoURI = cloneString(m.LogoURI)
		p.Decimals = m.Decimals
	}
	return nil
}

// GetByAddress retrieves a projection. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(_ context.Context, address string) (*domain.TokenProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.tokens[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	projCopy := *p
	projCopy.Socials = cloneSocials(p.Socials)
	return &projCopy, nil
}

// ExistingAddresses returns the subset of addresses that have a projection.
func (s *TokenStore) ExistingAddresses(_ context.Context, addresses []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []string
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		if _, exists := s.tokens[a]; exists {
			result = append(result, a)
		}
	}
	return result, nil
}

func cloneSocials(in domain.SocialLinks) domain.SocialLinks {
	if in == nil {
		return nil
	}
	out := make(domain.SocialLinks, len(in))
	for k, v := range in {
		out[k] = cloneString(v)
	}
	return out
}

var _ storage.TokenStore = (*TokenStore)(nil)
