// Package main runs the alpha-move service:
// - watch queue scheduler (continuous): enrichment of due tokens
// - jobs (cron): chain volume, fear index, SOL price history, trending, composite warmup
// - HTTP: webhook, read API, live feed; Prometheus on a separate listener
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"alpha-move/internal/api"
	"alpha-move/internal/cache"
	"alpha-move/internal/clock"
	"alpha-move/internal/config"
	"alpha-move/internal/enrichment"
	"alpha-move/internal/jobs"
	"alpha-move/internal/observability"
	"alpha-move/internal/provider"
	"alpha-move/internal/realtime"
	"alpha-move/internal/score"
	"alpha-move/internal/storage"
	chstore "alpha-move/internal/storage/clickhouse"
	"alpha-move/internal/storage/memory"
	"alpha-move/internal/storage/migrations"
	pgstore "alpha-move/internal/storage/postgres"
	"alpha-move/internal/watchqueue"
	"alpha-move/internal/webhook"
)

// allStores holds all storage implementations.
type allStores struct {
	watch        storage.WatchQueueStore
	tokens       storage.TokenStore
	volumes      storage.DailyVolumeStore
	prices       storage.PriceHistoryStore
	metrics      storage.AlphaMetricStore
	movers       storage.MoverRegistry
	transactions storage.MoverTransactionStore
	fearGreed    storage.FearGreedStore
	chainVolumes storage.BlockchainVolumeStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (env vars as defaults)
	useMemory := flag.Bool("use-memory", envBool("USE_MEMORY"), "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", envBool("MIGRATE"), "Apply embedded migrations on startup")
	flag.Parse()

	logger := observability.SetupLogging(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	if !*useMemory && (cfg.PostgresDSN == "" || cfg.ClickHouseDSN == "") {
		logger.Error().Msg("POSTGRES_DSN and CLICKHOUSE_DSN are required (use -use-memory for in-memory storage)")
		os.Exit(1)
	}
	if cfg.BirdeyeAPIKey == "" {
		logger.Warn().Msg("BIRDEYE_API_KEY is empty, enrichment calls will be rejected upstream")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error().Msg("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, *useMemory, *migrate)
	close(done)
	if err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

// run wires every component and blocks until ctx is cancelled.
// Resources acquired here are released before it returns.
func run(ctx context.Context, cfg *config.Config, useMemory, migrate bool) error {
	stores, cleanup, err := createStores(ctx, cfg, useMemory, migrate)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	sys := clock.System{}

	// Upstream providers
	birdeye := provider.NewBirdeye(cfg.BirdeyeBaseURL, cfg.BirdeyeAPIKey, cfg.Chain, provider.WithTimeout(cfg.ProviderTimeout))
	moni := provider.NewMoni(cfg.MoniBaseURL, cfg.MoniAPIKey, provider.WithTimeout(cfg.SocialTimeout))
	safety := provider.NewSafety(cfg.SafetyBaseURL, provider.WithTimeout(cfg.ProviderTimeout))
	alternative := provider.NewAlternative(cfg.AlternativeBaseURL, provider.WithTimeout(cfg.ProviderTimeout))
	defiLlama := provider.NewDefiLlama(cfg.DefiLlamaBaseURL, provider.WithTimeout(cfg.ProviderTimeout))

	aggregator := enrichment.NewAggregator(enrichment.Options{
		Tokens:          stores.tokens,
		Prices:          stores.prices,
		Volumes:         stores.volumes,
		Metrics:         stores.metrics,
		Movers:          stores.movers,
		Market:          birdeye,
		Social:          moni,
		Safety:          safety,
		Clock:           sys,
		ProviderTimeout: cfg.ProviderTimeout,
		SocialTimeout:   cfg.SocialTimeout,
	})

	scheduler := watchqueue.New(watchqueue.Options{
		Store:          stores.watch,
		Enricher:       aggregator,
		Clock:          sys,
		Interval:       cfg.WatchInterval,
		BatchSize:      cfg.WatchBatchSize,
		ItemDelay:      cfg.WatchItemDelay,
		Cooldown:       cfg.WatchCooldown,
		ActivityWindow: cfg.WatchActivityWindow,
		Concurrency:    cfg.WatchConcurrency,
	})

	fearGreed := score.NewFearGreedService(score.FearGreedOptions{
		Samples: stores.fearGreed,
		Volumes: stores.chainVolumes,
		Prices:  stores.prices,
		Clock:   sys,
	})

	runner := jobs.NewRunner(ctx, nil)
	for _, job := range []jobs.Job{
		&jobs.ChainVolumeJob{Source: defiLlama, Store: stores.chainVolumes, Chain: cfg.Chain, Clock: sys},
		&jobs.FearIndexJob{Source: alternative, Store: stores.fearGreed},
		&jobs.PriceHistoryJob{Source: birdeye, Store: stores.prices, Clock: sys},
		&jobs.TrendingJob{Source: birdeye, Tokens: stores.tokens, Volumes: stores.volumes, Clock: sys},
		&jobs.CompositeJob{Service: fearGreed, Chain: cfg.Chain},
	} {
		if err := runner.Add(cfg.JobsSchedule, job); err != nil {
			return fmt.Errorf("schedule job %s: %w", job.Name(), err)
		}
	}
	defer runner.Stop()

	hub := realtime.NewHub(realtime.DefaultHubConfig(), nil)
	defer hub.Close()

	ingester := webhook.NewIngester(webhook.Options{
		Registry:     stores.movers,
		Transactions: stores.transactions,
		Tokens:       stores.tokens,
		Backfiller:   aggregator,
		Publisher:    hub,
	})

	var respCache cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, "alpha-move:")
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, response cache disabled")
		} else {
			defer rc.Close()
			respCache = rc
		}
	}

	apiServer := api.NewServer(api.Options{
		Watch:        stores.watch,
		Metrics:      stores.metrics,
		Transactions: stores.transactions,
		Volumes:      stores.volumes,
		Samples:      stores.fearGreed,
		FearGreed:    fearGreed,
		Clock:        sys,
		Chain:        cfg.Chain,
		Cache:        respCache,
		CacheTTL:     cfg.CacheTTL,
		Webhook:      &webhook.Handler{Ingester: ingester, AuthToken: cfg.WebhookAuthToken},
		Live:         hub,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go serve(metricsServer, "metrics")
	go serve(httpServer, "http")

	// Warm the job tables once so the first requests have data
	go func() {
		if failed := runner.RunAll(ctx); failed > 0 {
			log.Warn().Int("failed", failed).Msg("startup jobs incomplete")
		}
		if ctx.Err() == nil {
			runner.Start()
		}
	}()

	err = scheduler.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics shutdown")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

// createStores creates all required stores.
func createStores(ctx context.Context, cfg *config.Config, useMemory, migrate bool) (*allStores, func(), error) {
	if useMemory {
		watch := memory.NewWatchQueueStore()
		tokens := memory.NewTokenStore()
		metrics := memory.NewAlphaMetricStore()
		movers := memory.NewMoverRegistry()
		return &allStores{
			watch:        watch,
			tokens:       tokens,
			volumes:      memory.NewDailyVolumeStore(),
			prices:       memory.NewPriceHistoryStore(),
			metrics:      metrics,
			movers:       movers,
			transactions: memory.NewMoverTransactionStore(movers, tokens, metrics, watch),
			fearGreed:    memory.NewFearGreedStore(),
			chainVolumes: memory.NewBlockchainVolumeStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, cfg.PostgresConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ClickHouse
	var chConn *chstore.Conn
	if migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("postgres migrations done")

		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickHouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
	}

	stores := &allStores{
		// PostgreSQL stores
		watch:        pgstore.NewWatchQueueStore(pool),
		tokens:       pgstore.NewTokenStore(pool),
		volumes:      pgstore.NewDailyVolumeStore(pool),
		metrics:      pgstore.NewAlphaMetricStore(pool),
		movers:       pgstore.NewMoverRegistry(pool),
		transactions: pgstore.NewMoverTransactionStore(pool),
		fearGreed:    pgstore.NewFearGreedStore(pool),
		chainVolumes: pgstore.NewBlockchainVolumeStore(pool),

		// ClickHouse stores
		prices: chstore.NewPriceHistoryStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	return mux
}

func serve(srv *http.Server, name string) {
	log.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Str("server", name).Msg("server error")
	}
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
