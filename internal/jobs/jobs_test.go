package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpha-move/internal/clock"
	"alpha-move/internal/domain"
	"alpha-move/internal/provider"
	"alpha-move/internal/solana"
	"alpha-move/internal/storage/memory"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeVolume struct{ err error }

func (f fakeVolume) ChainVolume(_ context.Context, chain string) (*domain.BlockchainVolumeSample, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BlockchainVolumeSample{Chain: chain, Total24h: 3_200_000_000, Change1d: -4.2}, nil
}

type fakeIndex struct{ limit int }

func (f *fakeIndex) FearGreedIndex(_ context.Context, limit int) ([]*domain.FearGreedSample, error) {
	f.limit = limit
	return []*domain.FearGreedSample{
		{Day: domain.StartOfDay(now), Chain: domain.ChainBTC, Value: 71, Classification: domain.ClassGreed},
		{Day: domain.StartOfDay(now).AddDate(0, 0, -1), Chain: domain.ChainBTC, Value: 64, Classification: domain.ClassGreed},
	}, nil
}

type fakeHistory struct {
	address  string
	interval string
	from, to time.Time
}

func (f *fakeHistory) HistoryPrice(_ context.Context, address, interval string, from, to time.Time) ([]*domain.PricePoint, error) {
	f.address, f.interval, f.from, f.to = address, interval, from, to
	return []*domain.PricePoint{
		{TokenAddress: address, Timestamp: now.AddDate(0, 0, -2), Price: 140},
		{TokenAddress: address, Timestamp: now.AddDate(0, 0, -1), Price: 150},
	}, nil
}

type fakeTrending struct{ limit int }

func (f *fakeTrending) Trending(_ context.Context, _, limit int) ([]provider.TrendingToken, error) {
	f.limit = limit
	logo := "https://img/bonk.png"
	return []provider.TrendingToken{
		{Address: "Bonk", Name: "Bonk", Symbol: "BONK", Decimals: 5, LogoURI: &logo, Volume24hUSD: 9_000_000, Rank: 1},
		{Address: "Wif", Name: "dogwifhat", Symbol: "WIF", Decimals: 6, Volume24hUSD: 4_000_000, Rank: 2},
		{Address: "", Name: "broken"},
	}, nil
}

type fakeComposite struct {
	calls atomic.Int32
	err   error
}

func (f *fakeComposite) Today(_ context.Context, chain string) (*domain.FearGreedSample, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FearGreedSample{Chain: chain, Value: 50}, nil
}

func TestChainVolumeJob(t *testing.T) {
	store := memory.NewBlockchainVolumeStore()
	job := &ChainVolumeJob{Source: fakeVolume{}, Store: store, Chain: domain.ChainSolana, Clock: clock.NewManual(now)}

	require.NoError(t, job.Run(context.Background()))

	got, err := store.LatestAtOrBefore(context.Background(), domain.ChainSolana, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StartOfDay(now), got.Day)
	assert.InDelta(t, 3_200_000_000, got.Total24h, 1)
	assert.InDelta(t, -4.2, got.Change1d, 1e-9)

	failing := &ChainVolumeJob{Source: fakeVolume{err: errors.New("down")}, Store: store, Chain: domain.ChainSolana, Clock: clock.NewManual(now)}
	assert.Error(t, failing.Run(context.Background()))
}

func TestFearIndexJob(t *testing.T) {
	store := memory.NewFearGreedStore()
	src := &fakeIndex{}
	job := &FearIndexJob{Source: src, Store: store}

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, FearIndexLimit, src.limit)

	history, err := store.History(context.Background(), domain.ChainBTC, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 71, history[0].Value)
}

func TestPriceHistoryJob(t *testing.T) {
	store := memory.NewPriceHistoryStore()
	src := &fakeHistory{}
	job := &PriceHistoryJob{Source: src, Store: store, Clock: clock.NewManual(now)}

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, solana.WrappedSOLMint, src.address)
	assert.Equal(t, "1D", src.interval)
	assert.Equal(t, now.AddDate(0, 0, -30), src.from)
	assert.Equal(t, now, src.to)

	closes, err := store.DailyCloses(context.Background(), solana.WrappedSOLMint, now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	require.Len(t, closes, 2)
	assert.InDelta(t, 150, closes[1].Price, 1e-9)
}

func TestTrendingJob(t *testing.T) {
	tokens := memory.NewTokenStore()
	volumes := memory.NewDailyVolumeStore()
	src := &fakeTrending{}
	job := &TrendingJob{Source: src, Tokens: tokens, Volumes: volumes, Clock: clock.NewManual(now)}
	ctx := context.Background()

	require.NoError(t, job.Run(ctx))
	assert.Equal(t, TrendingLimit, src.limit)

	p, err := tokens.GetByAddress(ctx, "Bonk")
	require.NoError(t, err)
	assert.Equal(t, "BONK", p.Symbol)
	assert.Equal(t, 5, p.Decimals)

	top, err := volumes.TopByDay(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Bonk", top[0].TokenAddress)
	assert.Equal(t, "Wif", top[1].TokenAddress)
}

func TestCompositeJob(t *testing.T) {
	svc := &fakeComposite{}
	job := &CompositeJob{Service: svc, Chain: domain.ChainSolana}
	require.NoError(t, job.Run(context.Background()))

	svc.err = errors.New("inputs unavailable")
	assert.Error(t, job.Run(context.Background()))
}
