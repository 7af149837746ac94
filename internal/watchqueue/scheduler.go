// Package watchqueue periodically re-enriches recently active tokens.
package watchqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"alpha-move/internal/clock"
	"alpha-move/internal/enrichment"
	"alpha-move/internal/observability"
	"alpha-move/internal/storage"
)

// Default scheduling parameters.
const (
	DefaultInterval       = 60 * time.Second
	DefaultBatchSize      = 50
	DefaultItemDelay      = 5 * time.Second
	DefaultCooldown       = time.Hour
	DefaultActivityWindow = 7 * 24 * time.Hour
)

// Enricher refreshes one token. It must not return an error; failures are its own business.
type Enricher interface {
	Enrich(ctx context.Context, tokenAddress string) enrichment.Report
}

// Options for creating a Scheduler.
type Options struct {
	Store    storage.WatchQueueStore
	Enricher Enricher
	Clock    clock.Clock

	Interval       time.Duration
	BatchSize      int
	ItemDelay      time.Duration
	Cooldown       time.Duration
	ActivityWindow time.Duration
	Concurrency    int // <= 1 processes the batch sequentially

	Logger *zerolog.Logger
}

// Scheduler selects due watch entries and enriches them.
type Scheduler struct {
	store    storage.WatchQueueStore
	enricher Enricher
	clock    clock.Clock

	interval       time.Duration
	batchSize      int
	itemDelay      time.Duration
	cooldown       time.Duration
	activityWindow time.Duration
	concurrency    int

	log zerolog.Logger
}

// New creates a Scheduler, filling unset options with defaults.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		store:          opts.Store,
		enricher:       opts.Enricher,
		clock:          opts.Clock,
		interval:       opts.Interval,
		batchSize:      opts.BatchSize,
		itemDelay:      opts.ItemDelay,
		cooldown:       opts.Cooldown,
		activityWindow: opts.ActivityWindow,
		concurrency:    opts.Concurrency,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.itemDelay < 0 {
		s.itemDelay = 0
	}
	if s.cooldown <= 0 {
		s.cooldown = DefaultCooldown
	}
	if s.activityWindow <= 0 {
		s.activityWindow = DefaultActivityWindow
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	s.log = logger.With().Str("component", "watchqueue").Logger()
	return s
}

// TickResult summarises one tick.
type TickResult struct {
	Due         int
	Processed   int
	Panicked    int
	RenewErrors int
	Errors      []string
}

// Run ticks immediately, then once per interval, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.interval).
		Int("batch_size", s.batchSize).
		Dur("cooldown", s.cooldown).
		Dur("activity_window", s.activityWindow).
		Msg("watch queue scheduler started")

	// Run immediately on start
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
			s.Tick(ctx)
		}
	}
}

// Tick processes one batch of due entries. Every selected entry is renewed,
// whether its enrichment succeeded, failed or panicked.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	start := time.Now()
	var res TickResult

	entries, err := s.store.Due(ctx, s.clock.Now(), s.cooldown, s.activityWindow, s.batchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("select due entries")
		res.Errors = append(res.Errors, fmt.Sprintf("select due: %v", err))
		return res
	}
	res.Due = len(entries)
	if len(entries) == 0 {
		observability.RecordTick(0, time.Since(start))
		return res
	}

	var mu sync.Mutex
	record := func(panicked bool, renewErr error, addr string) {
		mu.Lock()
		defer mu.Unlock()
		res.Processed++
		if panicked {
			res.Panicked++
		}
		if renewErr != nil {
			res.RenewErrors++
			res.Errors = append(res.Errors, fmt.Sprintf("renew %s: %v", addr, renewErr))
		}
	}

	if s.concurrency == 1 {
		for _, e := range entries {
			if ctx.Err() != nil {
				break
			}
			panicked, renewErr := s.process(ctx, e.TokenAddress)
			record(panicked, renewErr, e.TokenAddress)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, e := range entries {
			addr := e.TokenAddress
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				panicked, renewErr := s.process(gctx, addr)
				record(panicked, renewErr, addr)
				return nil
			})
		}
		_ = g.Wait()
	}

	observability.RecordTick(res.Due, time.Since(start))
	s.log.Info().
		Int("due", res.Due).
		Int("processed", res.Processed).
		Int("panicked", res.Panicked).
		Int("renew_errors", res.RenewErrors).
		Dur("elapsed", time.Since(start)).
		Msg("watch queue tick")
	return res
}

// process enriches one token, renews it and waits the per-item delay.
func (s *Scheduler) process(ctx context.Context, addr string) (panicked bool, renewErr error) {
	panicked = s.enrich(ctx, addr)

	if err := s.store.Renew(ctx, addr, s.clock.Now()); err != nil {
		observability.RecordRenewalError()
		s.log.Error().Err(err).Str("token", addr).Msg("renew watch entry")
		renewErr = err
	}

	_ = clock.Sleep(ctx, s.clock, s.itemDelay)
	return panicked, renewErr
}

func (s *Scheduler) enrich(ctx context.Context, addr string) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("token", addr).Interface("panic", r).Msg("enrichment panicked")
			observability.RecordSchedulerItem("panic")
			panicked = true
		}
	}()

	report := s.enricher.Enrich(ctx, addr)
	observability.RecordSchedulerItem("ok")
	s.log.Debug().Str("token", addr).Interface("facets", report.Facets).Msg("token enriched")
	return false
}
