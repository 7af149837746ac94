package jobs

import (
	"context"
	"fmt"
	"time"

	"alpha-move/internal/clock"
	"alpha-move/internal/domain"
	"alpha-move/internal/provider"
	"alpha-move/internal/solana"
	"alpha-move/internal/storage"
)

// Ingestion defaults.
const (
	FearIndexLimit   = 31
	PriceHistoryDays = 30
	PriceInterval    = "1D"
	TrendingLimit    = 20
)

// ChainVolumeSource fetches a chain's DEX volume overview.
type ChainVolumeSource interface {
	ChainVolume(ctx context.Context, chain string) (*domain.BlockchainVolumeSample, error)
}

// FearIndexSource fetches the external fear/greed index, newest first.
type FearIndexSource interface {
	FearGreedIndex(ctx context.Context, limit int) ([]*domain.FearGreedSample, error)
}

// PriceHistorySource fetches historical prices of a token.
type PriceHistorySource interface {
	HistoryPrice(ctx context.Context, address, interval string, from, to time.Time) ([]*domain.PricePoint, error)
}

// TrendingSource fetches the trending token list.
type TrendingSource interface {
	Trending(ctx context.Context, offset, limit int) ([]provider.TrendingToken, error)
}

// CompositeService computes the daily composite index.
type CompositeService interface {
	Today(ctx context.Context, chain string) (*domain.FearGreedSample, error)
}

// ChainVolumeJob stores today's DEX volume overview of a chain.
type ChainVolumeJob struct {
	Source ChainVolumeSource
	Store  storage.BlockchainVolumeStore
	Chain  string
	Clock  clock.Clock
}

func (j *ChainVolumeJob) Name() string { return "chain_volume" }

func (j *ChainVolumeJob) Run(ctx context.Context) error {
	s, err := j.Source.ChainVolume(ctx, j.Chain)
	if err != nil {
		return fmt.Errorf("fetch chain volume: %w", err)
	}
	now := j.Clock.Now()
	s.Chain = j.Chain
	s.Day = domain.StartOfDay(now)
	s.RecordedAt = now
	if err := j.Store.Upsert(ctx, s); err != nil {
		return fmt.Errorf("store chain volume: %w", err)
	}
	return nil
}

// FearIndexJob stores the last month of the external fear/greed index.
type FearIndexJob struct {
	Source FearIndexSource
	Store  storage.FearGreedStore
	Limit  int
}

func (j *FearIndexJob) Name() string { return "fear_index" }

func (j *FearIndexJob) Run(ctx context.Context) error {
	limit := j.Limit
	if limit <= 0 {
		limit = FearIndexLimit
	}
	samples, err := j.Source.FearGreedIndex(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch fear index: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}
	if err := j.Store.Upsert(ctx, samples); err != nil {
		return fmt.Errorf("store fear index: %w", err)
	}
	return nil
}

// PriceHistoryJob stores daily prices of a token for the trailing window.
type PriceHistoryJob struct {
	Source PriceHistorySource
	Store  storage.PriceHistoryStore
	Clock  clock.Clock
	// Token defaults to wrapped SOL.
	Token string
	Days  int
}

func (j *PriceHistoryJob) Name() string { return "price_history" }

func (j *PriceHistoryJob) Run(ctx context.Context) error {
	token := j.Token
	if token == "" {
		token = solana.WrappedSOLMint
	}
	days := j.Days
	if days <= 0 {
		days = PriceHistoryDays
	}

	now := j.Clock.Now()
	points, err := j.Source.HistoryPrice(ctx, token, PriceInterval, now.AddDate(0, 0, -days), now)
	if err != nil {
		return fmt.Errorf("fetch price history: %w", err)
	}
	if len(points) == 0 {
		return nil
	}
	if err := j.Store.InsertBulk(ctx, points); err != nil {
		return fmt.Errorf("store price history: %w", err)
	}
	return nil
}

// TrendingJob stores the identity and today's volume of trending tokens.
type TrendingJob struct {
	Source  TrendingSource
	Tokens  storage.TokenStore
	Volumes storage.DailyVolumeStore
	Clock   clock.Clock
	Limit   int
}

func (j *TrendingJob) Name() string { return "trending" }

func (j *TrendingJob) Run(ctx context.Context) error {
	limit := j.Limit
	if limit <= 0 {
		limit = TrendingLimit
	}
	tokens, err := j.Source.Trending(ctx, 0, limit)
	if err != nil {
		return fmt.Errorf("fetch trending: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	day := domain.StartOfDay(j.Clock.Now())
	metas := make([]*domain.TokenMeta, 0, len(tokens))
	volumes := make([]*domain.DailyVolume, 0, len(tokens))
	for _, t := range tokens {
		if t.Address == "" {
			continue
		}
		metas = append(metas, &domain.TokenMeta{
			Address:  t.Address,
			Name:     t.Name,
			Symbol:   t.Symbol,
			LogoURI:  t.LogoURI,
			Decimals: t.Decimals,
		})
		volumes = append(volumes, &domain.DailyVolume{
			TokenAddress: t.Address,
			Day:          day,
			Volume24hUSD: t.Volume24hUSD,
			Name:         t.Name,
			Symbol:       t.Symbol,
			LogoURI:      t.LogoURI,
		})
	}

	if err := j.Tokens.UpsertMeta(ctx, metas); err != nil {
		return fmt.Errorf("store trending meta: %w", err)
	}
	if err := j.Volumes.Upsert(ctx, volumes); err != nil {
		return fmt.Errorf("store trending volumes: %w", err)
	}
	return nil
}

// CompositeJob computes today's composite index ahead of the first request.
type CompositeJob struct {
	Service CompositeService
	Chain   string
}

func (j *CompositeJob) Name() string { return "composite_fear_greed" }

func (j *CompositeJob) Run(ctx context.Context) error {
	if _, err := j.Service.Today(ctx, j.Chain); err != nil {
		return fmt.Errorf("compute composite: %w", err)
	}
	return nil
}
