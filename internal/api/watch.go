package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alpha-move/internal/solana"
)

// touchWatch serves POST /api/v1/watch/:address. The token becomes due for enrichment.
func (s *Server) touchWatch(c *gin.Context) {
	address := c.Param("address")
	if err := solana.ValidateAddress(address); err != nil {
		Error(c, http.StatusBadRequest, "invalid address", nil)
		return
	}

	ctx := c.Request.Context()
	if err := s.opts.Watch.Touch(ctx, address, s.opts.Clock.Now()); err != nil {
		s.logger.Error().Err(err).Str("token", address).Msg("failed to touch watch entry")
		Error(c, http.StatusInternalServerError, "failed to watch token", nil)
		return
	}

	entry, err := s.opts.Watch.Get(ctx, address)
	if err != nil {
		s.logger.Error().Err(err).Str("token", address).Msg("failed to read watch entry")
		Error(c, http.StatusInternalServerError, "failed to watch token", nil)
		return
	}
	Ok(c, gin.H{
		"tokenAddress":   entry.TokenAddress,
		"lastActiveAt":   entry.LastActiveAt,
		"lastEnrichedAt": entry.LastEnrichedAt,
	}, nil)
}
