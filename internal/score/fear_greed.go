package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"alpha-move/internal/clock"
	"alpha-move/internal/domain"
	"alpha-move/internal/observability"
	"alpha-move/internal/solana"
	"alpha-move/internal/storage"
)

// ErrInputsUnavailable is returned when the index or chain volume needed for a composite is missing.
var ErrInputsUnavailable = errors.New("fear/greed inputs unavailable")

// MomentumDays is the number of daily closes, today included, that feed the momentum component.
const MomentumDays = 7

// FearGreedOptions configures a FearGreedService.
type FearGreedOptions struct {
	Samples storage.FearGreedStore
	Volumes storage.BlockchainVolumeStore
	Prices  storage.PriceHistoryStore
	Clock   clock.Clock
	// PriceToken is the token whose closes drive momentum. Defaults to wrapped SOL.
	PriceToken string
	Logger     *zerolog.Logger
}

// FearGreedService computes the composite index once per UTC day and serves the stored value after.
type FearGreedService struct {
	samples    storage.FearGreedStore
	volumes    storage.BlockchainVolumeStore
	prices     storage.PriceHistoryStore
	clock      clock.Clock
	priceToken string
	logger     zerolog.Logger
}

// NewFearGreedService creates a FearGreedService.
func NewFearGreedService(opts FearGreedOptions) *FearGreedService {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.PriceToken == "" {
		opts.PriceToken = solana.WrappedSOLMint
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &FearGreedService{
		samples:    opts.Samples,
		volumes:    opts.Volumes,
		prices:     opts.Prices,
		clock:      opts.Clock,
		priceToken: opts.PriceToken,
		logger:     logger.With().Str("component", "fear_greed").Logger(),
	}
}

// Today returns the composite of chain for the current UTC day, computing and storing it on first use.
func (s *FearGreedService) Today(ctx context.Context, chain string) (*domain.FearGreedSample, error) {
	now := s.clock.Now()
	day := domain.StartOfDay(now)

	cached, err := s.samples.GetByDay(ctx, chain, day)
	if err == nil {
		observability.RecordScore("cached")
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		observability.RecordScore("error")
		return nil, fmt.Errorf("get composite: %w", err)
	}

	sample, err := s.compute(ctx, chain, day, now)
	if err != nil {
		if errors.Is(err, ErrInputsUnavailable) {
			observability.RecordScore("unavailable")
		} else {
			observability.RecordScore("error")
		}
		return nil, err
	}

	if err := s.samples.Upsert(ctx, []*domain.FearGreedSample{sample}); err != nil {
		observability.RecordScore("error")
		return nil, fmt.Errorf("store composite: %w", err)
	}

	observability.RecordScore("computed")
	observability.UpdateFearGreed(chain, sample.Value)
	s.logger.Info().
		Str("chain", chain).
		Int("value", sample.Value).
		Str("classification", sample.Classification).
		Msg("composite fear/greed computed")
	return sample, nil
}

func (s *FearGreedService) compute(ctx context.Context, chain string, day, now time.Time) (*domain.FearGreedSample, error) {
	index, err := s.samples.LatestAtOrBefore(ctx, domain.ChainBTC, day)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no %s index sample", ErrInputsUnavailable, domain.ChainBTC)
	}
	if err != nil {
		return nil, fmt.Errorf("get index sample: %w", err)
	}

	volume, err := s.volumes.LatestAtOrBefore(ctx, chain, day)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no %s volume sample", ErrInputsUnavailable, chain)
	}
	if err != nil {
		return nil, fmt.Errorf("get volume sample: %w", err)
	}

	closes, err := s.prices.DailyCloses(ctx, s.priceToken, day.AddDate(0, 0, -(MomentumDays-1)), day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("get daily closes: %w", err)
	}
	if len(closes) > MomentumDays {
		closes = closes[len(closes)-MomentumDays:]
	}
	prices := make([]float64, len(closes))
	for i, c := range closes {
		prices[i] = c.Price
	}

	a := float64(index.Value)
	b := MomentumScore(prices)
	c := float64(BlockchainVolumeScore(volume.Total24h))
	value := CompositeFearGreed(a, b, c)

	return &domain.FearGreedSample{
		Day:            day,
		Chain:          chain,
		Value:          value,
		Classification: Classify(value),
		RecordedAt:     now,
	}, nil
}
