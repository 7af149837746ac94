// Package api serves the read endpoints, the webhook and the live feed over gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"alpha-move/internal/cache"
	"alpha-move/internal/clock"
	"alpha-move/internal/domain"
	"alpha-move/internal/storage"
)

// FearGreedSource serves the daily composite index.
type FearGreedSource interface {
	Today(ctx context.Context, chain string) (*domain.FearGreedSample, error)
}

// Options configures a Server. Cache, Webhook and Live are optional.
type Options struct {
	Watch        storage.WatchQueueStore
	Metrics      storage.AlphaMetricStore
	Transactions storage.MoverTransactionStore
	Volumes      storage.DailyVolumeStore
	Samples      storage.FearGreedStore
	FearGreed    FearGreedSource
	Clock        clock.Clock
	Chain        string

	Cache    cache.Cache
	CacheTTL time.Duration

	// Webhook registers extra routes on the root router.
	Webhook interface{ Register(r gin.IRouter) }
	// Live serves the websocket feed.
	Live http.Handler

	Logger *zerolog.Logger
}

// Server holds the dependencies of every handler.
type Server struct {
	opts   Options
	logger zerolog.Logger
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Chain == "" {
		opts.Chain = domain.ChainSolana
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Server{
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)

	if s.opts.Webhook != nil {
		s.opts.Webhook.Register(r)
	}
	if s.opts.Live != nil {
		r.GET("/ws/mover-transactions", gin.WrapH(s.opts.Live))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/alpha-move/metrics", s.alphaMetrics)
	v1.GET("/alpha-move/transactions", s.moverTransactions)
	v1.GET("/token/mindshare", s.mindshare)
	v1.GET("/fear-and-greed", s.fearGreedToday)
	v1.GET("/fear-and-greed/history", s.fearGreedHistory)
	v1.POST("/watch/:address", s.touchWatch)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
