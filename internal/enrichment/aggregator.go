// Package enrichment refreshes the market, safety, holder and social facets of a token.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"alpha-move/internal/clock"
	"alpha-move/internal/domain"
	"alpha-move/internal/observability"
	"alpha-move/internal/provider"
	"alpha-move/internal/storage"
)

// Default timeouts for upstream calls.
const (
	DefaultProviderTimeout = 15 * time.Second
	DefaultSocialTimeout   = 20 * time.Second
)

// Facet names a unit of enrichment.
type Facet string

const (
	FacetOverview Facet = "overview"
	FacetMarket   Facet = "market"
	FacetTrade    Facet = "trade"
	FacetSafety   Facet = "safety"
	FacetHolders  Facet = "holders"
	FacetSocial   Facet = "social"
)

// Status is the outcome of one facet.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Report summarises one Enrich call. Facets are independent: a failed one never blocks another.
type Report struct {
	TokenAddress string
	Facets       map[Facet]Status
}

// OK reports whether facet succeeded.
func (r Report) OK(f Facet) bool {
	return r.Facets[f] == StatusOK
}

// MarketSource fetches token data from the market data provider.
type MarketSource interface {
	TokenOverview(ctx context.Context, address string) (*domain.TokenOverview, error)
	TokenMarket(ctx context.Context, address string) (*domain.TokenMarket, error)
	TokenTrade(ctx context.Context, address string) (*domain.TokenTrade, error)
	TopHolderOwners(ctx context.Context, address string) ([]string, error)
}

// SocialSource fetches the social score of a Twitter handle.
type SocialSource interface {
	SmartEngagement(ctx context.Context, handle string) (*provider.SmartEngagement, error)
}

// SafetySource fetches the safety score of a token.
type SafetySource interface {
	SafetyScore(ctx context.Context, tokenAddress string) (float64, error)
}

// Options configures an Aggregator. Stores and sources are required unless noted.
type Options struct {
	Tokens  storage.TokenStore
	Prices  storage.PriceHistoryStore // optional
	Volumes storage.DailyVolumeStore  // optional
	Metrics storage.AlphaMetricStore
	Movers  storage.MoverRegistry

	Market MarketSource
	Social SocialSource // optional, social facet skipped when nil
	Safety SafetySource // optional, safety facet skipped when nil

	Clock           clock.Clock
	ProviderTimeout time.Duration
	SocialTimeout   time.Duration
	Logger          *zerolog.Logger
}

// Aggregator enriches one token at a time from several upstream sources.
type Aggregator struct {
	opts Options
	log  zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts Options) *Aggregator {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = DefaultProviderTimeout
	}
	if opts.SocialTimeout <= 0 {
		opts.SocialTimeout = DefaultSocialTimeout
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Aggregator{
		opts: opts,
		log:  logger.With().Str("component", "enrichment").Logger(),
	}
}

// Enrich refreshes every facet of tokenAddress. It never returns an error:
// each facet logs its own failure and the outcome is recorded in the Report.
func (a *Aggregator) Enrich(ctx context.Context, tokenAddress string) Report {
	rec := &recorder{report: Report{TokenAddress: tokenAddress, Facets: make(map[Facet]Status, 6)}}
	logger := a.log.With().Str("token", tokenAddress).Logger()

	var g errgroup.Group

	g.Go(func() error {
		var overview *domain.TokenOverview
		a.runFacet(ctx, logger, rec, FacetOverview, func(ctx context.Context) (Status, error) {
			o, err := a.overview(ctx, tokenAddress)
			if err != nil {
				return StatusFailed, err
			}
			overview = o
			return StatusOK, nil
		})
		a.runFacet(ctx, logger, rec, FacetSocial, func(ctx context.Context) (Status, error) {
			if overview == nil {
				return StatusSkipped, nil
			}
			return a.social(ctx, logger, tokenAddress, overview)
		})
		return nil
	})
	g.Go(func() error {
		a.runFacet(ctx, logger, rec, FacetMarket, func(ctx context.Context) (Status, error) {
			return a.market(ctx, tokenAddress)
		})
		return nil
	})
	g.Go(func() error {
		a.runFacet(ctx, logger, rec, FacetTrade, func(ctx context.Context) (Status, error) {
			return a.trade(ctx, tokenAddress)
		})
		return nil
	})
	g.Go(func() error {
		a.runFacet(ctx, logger, rec, FacetSafety, func(ctx context.Context) (Status, error) {
			return a.safety(ctx, tokenAddress)
		})
		return nil
	})
	g.Go(func() error {
		a.runFacet(ctx, logger, rec, FacetHolders, func(ctx context.Context) (Status, error) {
			return a.holders(ctx, tokenAddress)
		})
		return nil
	})

	_ = g.Wait()
	return rec.report
}

// BackfillOverview fetches and persists only the overview facet.
func (a *Aggregator) BackfillOverview(ctx context.Context, tokenAddress string) error {
	_, err := a.overview(ctx, tokenAddress)
	status := statusOf(err)
	observability.RecordFacet(string(FacetOverview), string(status))
	return err
}

// runFacet executes fn, recovering panics so one facet cannot take down its siblings.
func (a *Aggregator) runFacet(ctx context.Context, logger zerolog.Logger, rec *recorder, facet Facet, fn func(context.Context) (Status, error)) {
	status := StatusFailed
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("facet", string(facet)).Interface("panic", r).Msg("facet panicked")
			status = StatusFailed
		}
		rec.set(facet, status)
		observability.RecordFacet(string(facet), string(status))
	}()

	s, err := fn(ctx)
	status = s
	if err != nil {
		logger.Warn().Err(err).Str("facet", string(facet)).Msg("facet failed")
	}
}

// overview fetches the overview and persists it with its price point and daily volume.
func (a *Aggregator) overview(ctx context.Context, tokenAddress string) (*domain.TokenOverview, error) {
	fctx, cancel := context.WithTimeout(ctx, a.opts.ProviderTimeout)
	o, err := a.opts.Market.TokenOverview(fctx, tokenAddress)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch overview: %w", err)
	}

	if err := a.opts.Tokens.UpsertOverview(ctx, o); err != nil {
		return nil, fmt.Errorf("persist overview: %w", err)
	}

	now := a.opts.Clock.Now()
	var errs []error

	if a.opts.Prices != nil && o.Price != nil {
		p := &domain.PricePoint{TokenAddress: tokenAddress, Timestamp: now, Price: *o.Price}
		if o.Volume24hUSD != nil {
			p.Volume24hUSD = *o.Volume24hUSD
		}
		if err := a.opts.Prices.InsertBulk(ctx, []*domain.PricePoint{p}); err != nil {
			errs = append(errs, fmt.Errorf("persist price point: %w", err))
		}
	}

	if a.opts.Volumes != nil && o.Volume24hUSD != nil {
		v := &domain.DailyVolume{
			TokenAddress: tokenAddress,
			Day:          domain.StartOfDay(now),
			Volume24hUSD: *o.Volume24hUSD,
			Name:         o.Name,
			Symbol:       o.Symbol,
			LogoURI:      o.LogoURI,
		}
		if err := a.opts.Volumes.Upsert(ctx, []*domain.DailyVolume{v}); err != nil {
			errs = append(errs, fmt.Errorf("persist daily volume: %w", err))
		}
	}

	// history writes are best effort once the projection is stored
	if len(errs) > 0 {
		a.log.Warn().Err(errors.Join(errs...)).Str("token", tokenAddress).Msg("overview history not persisted")
	}
	return o, nil
}

func (a *Aggregator) market(ctx context.Context, tokenAddress string) (Status, error) {
	fctx, cancel := context.WithTimeout(ctx, a.opts.ProviderTimeout)
	m, err := a.opts.Market.TokenMarket(fctx, tokenAddress)
	cancel()
	if err != nil {
		return StatusFailed, fmt.Errorf("fetch market: %w", err)
	}
	if err := a.opts.Tokens.UpsertMarket(ctx, m); err != nil {
		return StatusFailed, fmt.Errorf("persist market: %w", err)
	}
	return StatusOK, nil
}

func (a *Aggregator) trade(ctx context.Context, tokenAddress string) (Status, error) {
	fctx, cancel := context.WithTimeout(ctx, a.opts.ProviderTimeout)
	t, err := a.opts.Market.TokenTrade(fctx, tokenAddress)
	cancel()
	if err != nil {
		return StatusFailed, fmt.Errorf("fetch trade: %w", err)
	}
	if err := a.opts.Tokens.UpsertTrade(ctx, t); err != nil {
		return StatusFailed, fmt.Errorf("persist trade: %w", err)
	}
	return StatusOK, nil
}

func (a *Aggregator) safety(ctx context.Context, tokenAddress string) (Status, error) {
	if a.opts.Safety == nil {
		return StatusSkipped, nil
	}

	fctx, cancel := context.WithTimeout(ctx, a.opts.ProviderTimeout)
	score, err := a.opts.Safety.SafetyScore(fctx, tokenAddress)
	cancel()
	if err != nil {
		return StatusFailed, fmt.Errorf("fetch safety score: %w", err)
	}
	if err := a.opts.Metrics.Patch(ctx, tokenAddress, domain.AlphaMetricPatch{RiskScore: &score}); err != nil {
		return StatusFailed, fmt.Errorf("persist risk score: %w", err)
	}
	return StatusOK, nil
}

func (a *Aggregator) holders(ctx context.Context, tokenAddress string) (Status, error) {
	fctx, cancel := context.WithTimeout(ctx, a.opts.ProviderTimeout)
	owners, err := a.opts.Market.TopHolderOwners(fctx, tokenAddress)
	cancel()
	if err != nil {
		return StatusFailed, fmt.Errorf("fetch top holders: %w", err)
	}

	n, err := a.opts.Movers.CountTracked(ctx, owners)
	if err != nil {
		return StatusFailed, fmt.Errorf("count tracked holders: %w", err)
	}
	if err := a.opts.Metrics.Patch(ctx, tokenAddress, domain.AlphaMetricPatch{TopSmartWalletHolders: &n}); err != nil {
		return StatusFailed, fmt.Errorf("persist smart holders: %w", err)
	}
	return StatusOK, nil
}

// social fetches the social score once per token. A settled score (including the
// failure sentinel) is never fetched again.
func (a *Aggregator) social(ctx context.Context, logger zerolog.Logger, tokenAddress string, o *domain.TokenOverview) (Status, error) {
	if a.opts.Social == nil {
		return StatusSkipped, nil
	}

	m, err := a.opts.Metrics.Get(ctx, tokenAddress)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return StatusFailed, fmt.Errorf("read alpha metric: %w", err)
	case m.MunScoreSettled():
		return StatusSkipped, nil
	}

	link, ok := o.Socials.Get(domain.SocialTwitter)
	if !ok {
		return StatusSkipped, nil
	}
	handle := ExtractTwitterHandle(link)
	if handle == "" {
		return StatusSkipped, nil
	}

	fctx, cancel := context.WithTimeout(ctx, a.opts.SocialTimeout)
	se, err := a.opts.Social.SmartEngagement(fctx, handle)
	cancel()
	if err != nil {
		failed := domain.MunScoreFailed
		if perr := a.opts.Metrics.Patch(ctx, tokenAddress, domain.AlphaMetricPatch{MunScore: &failed}); perr != nil {
			return StatusFailed, errors.Join(fmt.Errorf("fetch social score for %s: %w", handle, err), fmt.Errorf("persist failure marker: %w", perr))
		}
		return StatusFailed, fmt.Errorf("fetch social score for %s: %w", handle, err)
	}

	score := se.FollowersScore
	followers := se.SmartFollowersCount
	if err := a.opts.Metrics.Patch(ctx, tokenAddress, domain.AlphaMetricPatch{MunScore: &score, SmartFollowers: &followers}); err != nil {
		return StatusFailed, fmt.Errorf("persist social score: %w", err)
	}
	logger.Debug().Str("handle", handle).Float64("mun_score", score).Msg("social score updated")
	return StatusOK, nil
}

type recorder struct {
	mu     sync.Mutex
	report Report
}

func (r *recorder) set(f Facet, s Status) {
	r.mu.Lock()
	r.report.Facets[f] = s
	r.mu.Unlock()
}

func statusOf(err error) Status {
	if err != nil {
		return StatusFailed
	}
	return StatusOK
}
