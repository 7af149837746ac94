package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// MoverTransactionStore is an in-memory implementation of storage.MoverTransactionStore.
// List joins against the sibling memory stores it was built with; nil siblings are skipped.
type MoverTransactionStore struct {
	mu  sync.RWMutex
	txs map[string]*domain.MoverTransaction // keyed by signature

	movers  *MoverRegistry
	tokens  *TokenStore
	metrics *AlphaMetricStore
	watch   *WatchQueueStore
}

// NewMoverTransactionStore creates a new in-memory mover transaction store.
func NewMoverTransactionStore(movers *MoverRegistry, tokens *TokenStore, metrics *AlphaMetricStore, watch *WatchQueueStore) *MoverTransactionStore {
	return &MoverTransactionStore{
		txs:     make(map[string]*domain.MoverTransaction),
		movers:  movers,
		tokens:  tokens,
		metrics: metrics,
		watch:   watch,
	}
}

// Upsert writes a transaction keyed by signature.
func (s *MoverTransactionStore) Upsert(_ context.Context, tx *domain.MoverTransaction) error {
	if tx == nil || tx.Signature == "" || !tx.Action.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txCopy := *tx
	txCopy.UpdatedAt = time.Now().UTC()
	s.txs[tx.Signature] = &txCopy
	return nil
}

// Get retrieves a transaction. Returns ErrNotFound if not exists.
func (s *MoverTransactionStore) Get(_ context.Context, signature string) (*domain.MoverTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.txs[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}
	txCopy := *tx
	return &txCopy, nil
}

// visible returns transactions on watched tokens, slot DESC.
func (s *MoverTransactionStore) visible() []*domain.MoverTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MoverTransaction
	for _, tx := range s.txs {
		if s.watch != nil && !s.watch.contains(tx.TokenAddress) {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Slot == result[j].Slot {
			return result[i].Signature < result[j].Signature
		}
		return result[i].Slot > result[j].Slot
	})
	return result
}

// List returns joined views of transactions on watched tokens, slot DESC.
func (s *MoverTransactionStore) List(ctx context.Context, limit, offset int) ([]*domain.MoverTransactionView, error) {
	if limit <= 0 || offset < 0 {
		return nil, storage.ErrInvalidInput
	}

	txs := s.visible()
	if offset >= len(txs) {
		return []*domain.MoverTransactionView{}, nil
	}
	txs = txs[offset:]
	if len(txs) > limit {
		txs = txs[:limit]
	}

	views := make([]*domain.MoverTransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, s.join(ctx, tx))
	}
	return views, nil
}

func (s *MoverTransactionStore) join(ctx context.Context, tx *domain.MoverTransaction) *domain.MoverTransactionView {
	v := &domain.MoverTransactionView{MoverTransaction: *tx}

	if s.movers != nil {
		if m, err := s.movers.Get(ctx, tx.WalletAddress); err == nil {
			v.MoverRole = m.Role
			v.MoverName = m.Name
		}
	}
	if s.tokens != nil {
		if p, err := s.tokens.GetByAddress(ctx, tx.TokenAddress); err == nil {
			name, symbol, decimals := p.Name, p.Symbol, p.Decimals
			v.TokenName = &name
			v.TokenSymbol = &symbol
			v.Decimals = &decimals
			v.TokenLogo = p.LogoURI
			v.TotalSupply = p.TotalSupply
			v.MarketCap = p.MarketCap
			v.History24hPrice = p.History24hPrice
			v.PriceChange24hPercent = p.PriceChange24hPercent
			v.Holders = p.Holders
			v.Liquidity = p.Liquidity
			v.Volume24hUSD = p.Volume24hUSD
			v.Volume24hChange = p.Volume24hChangePercent
		}
	}
	if s.metrics != nil {
		if m, err := s.metrics.Get(ctx, tx.TokenAddress); err == nil {
			floored := m.Floored()
			v.Metric = &floored
		}
	}
	return v
}

// Count returns the number of transactions on watched tokens.
func (s *MoverTransactionStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.visible())), nil
}

var _ storage.MoverTransactionStore = (*MoverTransactionStore)(nil)
