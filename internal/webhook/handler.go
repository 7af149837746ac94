package webhook

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves webhook deliveries over gin.
type Handler struct {
	Ingester *Ingester
	// AuthToken, when set, must equal the Authorization header of every delivery.
	AuthToken string
}

// Register mounts the webhook route.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/webhook", h.receive)
}

func (h *Handler) receive(c *gin.Context) {
	if h.AuthToken != "" {
		got := c.GetHeader("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.AuthToken)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}
	}

	var txs []EnhancedTransaction
	if err := c.ShouldBindJSON(&txs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload", "error": err.Error()})
		return
	}

	// The batch runs to completion regardless of the sender's connection.
	if _, err := h.Ingester.Ingest(context.WithoutCancel(c.Request.Context()), txs); err != nil {
		h.Ingester.logger.Error().Err(err).Int("transactions", len(txs)).Msg("webhook batch dropped")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
}
