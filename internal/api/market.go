package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"alpha-move/internal/cache"
	"alpha-move/internal/domain"
	"alpha-move/internal/score"
)

const (
	mindshareLimit      = 100
	defaultHistoryLimit = 31
	maxHistoryLimit     = 365
)

type mindshareResponse struct {
	TokenAddress string  `json:"tokenAddress"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	LogoURI      *string `json:"logoUri"`
	Volume24hUSD float64 `json:"volume24hUsd"`
	Mindshare    float64 `json:"mindshare"`
}

type fearGreedResponse struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
	Chain          string `json:"chain"`
	Timestamp      int64  `json:"timestamp"`
}

func newFearGreed(s *domain.FearGreedSample) fearGreedResponse {
	return fearGreedResponse{
		Value:          s.Value,
		Classification: s.Classification,
		Chain:          s.Chain,
		Timestamp:      s.Day.Unix(),
	}
}

// mindshare serves GET /api/v1/token/mindshare over today's top daily volumes.
func (s *Server) mindshare(c *gin.Context) {
	day := domain.StartOfDay(s.opts.Clock.Now())
	key := "mindshare:" + day.Format("2006-01-02")

	out, err := cache.Load(c.Request.Context(), s.opts.Cache, key, s.opts.CacheTTL, func(ctx context.Context) ([]mindshareResponse, error) {
		top, err := s.opts.Volumes.TopByDay(ctx, day, mindshareLimit)
		if err != nil {
			return nil, err
		}
		volumes := make([]float64, len(top))
		for i, v := range top {
			volumes[i] = v.Volume24hUSD
		}
		shares := score.Mindshare(volumes)

		out := make([]mindshareResponse, len(top))
		for i, v := range top {
			out[i] = mindshareResponse{
				TokenAddress: v.TokenAddress,
				Name:         v.Name,
				Symbol:       v.Symbol,
				LogoURI:      v.LogoURI,
				Volume24hUSD: v.Volume24hUSD,
				Mindshare:    shares[i],
			}
		}
		return out, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load mindshare")
		Error(c, http.StatusInternalServerError, "failed to load mindshare", nil)
		return
	}
	Ok(c, out, nil)
}

// fearGreedToday serves GET /api/v1/fear-and-greed.
func (s *Server) fearGreedToday(c *gin.Context) {
	sample, err := s.opts.FearGreed.Today(c.Request.Context(), s.opts.Chain)
	if errors.Is(err, score.ErrInputsUnavailable) {
		Error(c, http.StatusServiceUnavailable, "fear and greed index not available yet", nil)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute fear and greed")
		Error(c, http.StatusInternalServerError, "failed to compute fear and greed", nil)
		return
	}
	Ok(c, newFearGreed(sample), nil)
}

// fearGreedHistory serves GET /api/v1/fear-and-greed/history?chain=&limit=.
func (s *Server) fearGreedHistory(c *gin.Context) {
	chain := strings.TrimSpace(c.Query("chain"))
	if chain == "" {
		chain = domain.ChainBTC
	}
	limit, ok := intQuery(c, "limit", defaultHistoryLimit)
	if !ok || limit < 1 || limit > maxHistoryLimit {
		Error(c, http.StatusBadRequest, "limit must be between 1 and 365", nil)
		return
	}

	key := fmt.Sprintf("fear-greed-history:%s:%d", chain, limit)
	out, err := cache.Load(c.Request.Context(), s.opts.Cache, key, s.opts.CacheTTL, func(ctx context.Context) ([]fearGreedResponse, error) {
		samples, err := s.opts.Samples.History(ctx, chain, limit)
		if err != nil {
			return nil, err
		}
		out := make([]fearGreedResponse, len(samples))
		for i, smp := range samples {
			out[i] = newFearGreed(smp)
		}
		return out, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load fear and greed history")
		Error(c, http.StatusInternalServerError, "failed to load fear and greed history", nil)
		return
	}
	Ok(c, out, nil)
}
