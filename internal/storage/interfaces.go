package storage

import (
	"context"
	"time"

	"alpha-move/internal/domain"
)

// WatchQueueStore provides access to watch_queue storage.
type WatchQueueStore interface {
	// Touch records user activity for a token, creating the entry if missing.
	// A new entry is due immediately. LastActiveAt never moves backwards.
	Touch(ctx context.Context, tokenAddress string, at time.Time) error

	// Due returns up to limit entries with now-LastEnrichedAt > cooldown and
	// now-LastActiveAt < activityWindow, least recently enriched first.
	Due(ctx context.Context, now time.Time, cooldown, activityWindow time.Duration, limit int) ([]*domain.WatchEntry, error)

	// Renew advances LastEnrichedAt to at. Earlier timestamps are ignored.
	// Returns ErrNotFound if the entry does not exist.
	Renew(ctx context.Context, tokenAddress string, at time.Time) error

	// Get retrieves an entry. Returns ErrNotFound if not exists.
	Get(ctx context.Context, tokenAddress string) (*domain.WatchEntry, error)
}

// TokenStore provides access to token_projection storage.
// Every upsert touches only the columns of its facet.
type TokenStore interface {
	// UpsertOverview writes overview columns.
	UpsertOverview(ctx context.Context, o *domain.TokenOverview) error

	// UpsertMarket writes market columns.
	UpsertMarket(ctx context.Context, m *domain.TokenMarket) error

	// UpsertTrade writes trade columns.
	UpsertTrade(ctx context.Context, t *domain.TokenTrade) error

	// UpsertMeta writes identity columns (name, symbol, logo, decimals).
	UpsertMeta(ctx context.Context, metas []*domain.TokenMeta) error

	// GetByAddress retrieves a projection. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.TokenProjection, error)

	// ExistingAddresses returns the subset of addresses that have a projection.
	ExistingAddresses(ctx context.Context, addresses []string) ([]string, error)
}

// DailyVolumeStore provides access to daily_volume storage.
type DailyVolumeStore interface {
	// Upsert writes volumes keyed by (token_address, day).
	Upsert(ctx context.Context, volumes []*domain.DailyVolume) error

	// TopByDay returns the limit highest volumes recorded for day, highest first.
	TopByDay(ctx context.Context, day time.Time, limit int) ([]*domain.DailyVolume, error)
}

// PriceHistoryStore provides access to price_history storage.
type PriceHistoryStore interface {
	// InsertBulk adds points. Re-inserting an existing (token, timestamp) replaces it.
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// DailyCloses returns the last price of each UTC day in [from, to), ordered by day ASC.
	DailyCloses(ctx context.Context, tokenAddress string, from, to time.Time) ([]domain.DailyClose, error)
}

// AlphaMetricStore provides access to alpha_metric storage.
type AlphaMetricStore interface {
	// Patch applies a column-level upsert. Nil patch fields never overwrite stored values.
	Patch(ctx context.Context, tokenAddress string, p domain.AlphaMetricPatch) error

	// Get retrieves a metric. Returns ErrNotFound if not exists.
	Get(ctx context.Context, tokenAddress string) (*domain.AlphaMetric, error)

	// GetByAddresses retrieves metrics for the given tokens. Missing tokens are omitted.
	GetByAddresses(ctx context.Context, tokenAddresses []string) ([]*domain.AlphaMetric, error)
}

// MoverRegistry provides access to mover_wallet storage.
type MoverRegistry interface {
	// TrackedAmong returns the subset of wallets present in the registry.
	TrackedAmong(ctx context.Context, wallets []string) (map[string]struct{}, error)

	// CountTracked counts how many of wallets are present in the registry.
	CountTracked(ctx context.Context, wallets []string) (int64, error)

	// Upsert adds or replaces registry entries.
	Upsert(ctx context.Context, movers []*domain.MoverWallet) error

	// Get retrieves a mover. Returns ErrNotFound if not exists.
	Get(ctx context.Context, walletAddress string) (*domain.MoverWallet, error)
}

// MoverTransactionStore provides access to mover_transaction storage.
type MoverTransactionStore interface {
	// Upsert writes a transaction keyed by signature, overwriting on redelivery.
	Upsert(ctx context.Context, tx *domain.MoverTransaction) error

	// Get retrieves a transaction. Returns ErrNotFound if not exists.
	Get(ctx context.Context, signature string) (*domain.MoverTransaction, error)

	// List returns joined views of transactions on watched tokens, slot DESC.
	List(ctx context.Context, limit, offset int) ([]*domain.MoverTransactionView, error)

	// Count returns the number of transactions List can page through.
	Count(ctx context.Context) (int64, error)
}

// FearGreedStore provides access to fear_greed_sample storage.
type FearGreedStore interface {
	// Upsert writes samples keyed by (day, chain).
	Upsert(ctx context.Context, samples []*domain.FearGreedSample) error

	// GetByDay retrieves the sample of chain for day. Returns ErrNotFound if not exists.
	GetByDay(ctx context.Context, chain string, day time.Time) (*domain.FearGreedSample, error)

	// LatestAtOrBefore retrieves the newest sample of chain with Day <= day.
	// Returns ErrNotFound if none exists.
	LatestAtOrBefore(ctx context.Context, chain string, day time.Time) (*domain.FearGreedSample, error)

	// History returns up to limit samples of chain, newest first.
	History(ctx context.Context, chain string, limit int) ([]*domain.FearGreedSample, error)
}

// BlockchainVolumeStore provides access to blockchain_volume_sample storage.
type BlockchainVolumeStore interface {
	// Upsert writes a sample keyed by (day, chain).
	Upsert(ctx context.Context, s *domain.BlockchainVolumeSample) error

	// LatestAtOrBefore retrieves the newest sample of chain with Day <= day.
	// Returns ErrNotFound if none exists.
	LatestAtOrBefore(ctx context.Context, chain string, day time.Time) (*domain.BlockchainVolumeSample, error)
}
