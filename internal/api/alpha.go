package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"alpha-move/internal/domain"
	"alpha-move/internal/solana"
)

const (
	maxMetricAddresses = 100
	maxPageLimit       = 100
	defaultPageLimit   = 20
)

type tokenScoreResponse struct {
	TokenAddress           string    `json:"tokenAddress"`
	MunScore               float64   `json:"munScore"`
	RiskScore              float64   `json:"riskScore"`
	TopFreshWalletHolders  int64     `json:"topFreshWalletHolders"`
	TopSmartWalletsHolders int64     `json:"topSmartWalletsHolders"`
	SmartFollowers         int64     `json:"smartFollowers"`
	UpdatedAt              time.Time `json:"updatedAt"`

	Marketcap             *float64 `json:"marketcap,omitempty"`
	History24hPrice       *float64 `json:"history24hPrice,omitempty"`
	PriceChange24hPercent *float64 `json:"priceChange24hPercent,omitempty"`
	Holders               *int64   `json:"holders,omitempty"`
	Liquidity             *float64 `json:"liquidity,omitempty"`
	Volume24h             *float64 `json:"volume24h,omitempty"`
	Volume24hChange       *float64 `json:"volume24hChange,omitempty"`
}

func newTokenScore(m *domain.AlphaMetric) tokenScoreResponse {
	f := m.Floored()
	return tokenScoreResponse{
		TokenAddress:           f.TokenAddress,
		MunScore:               deref(f.MunScore),
		RiskScore:              deref(f.RiskScore),
		TopFreshWalletHolders:  f.TopFreshWalletHolders,
		TopSmartWalletsHolders: f.TopSmartWalletHolders,
		SmartFollowers:         f.SmartFollowers,
		UpdatedAt:              f.UpdatedAt,
	}
}

type moverTransactionResponse struct {
	Signature     string              `json:"signature"`
	TokenAddress  string              `json:"tokenAddress"`
	WalletAddress string              `json:"walletAddress"`
	ActionType    string              `json:"actionType"`
	Amount        string              `json:"amount"`
	Time          int64               `json:"time"`
	Slot          int64               `json:"slot"`
	CoinName      *string             `json:"coinName"`
	TokenSymbol   *string             `json:"tokenSymbol"`
	TokenLogo     *string             `json:"tokenLogo"`
	TotalSupply   float64             `json:"totalSupply"`
	AlphaGroup    string              `json:"alphaGroup"`
	Name          string              `json:"name"`
	Token         *tokenScoreResponse `json:"token"`
	Decimal       int                 `json:"decimal"`
}

func newMoverTransaction(v *domain.MoverTransactionView) moverTransactionResponse {
	resp := moverTransactionResponse{
		Signature:     v.Signature,
		TokenAddress:  v.TokenAddress,
		WalletAddress: v.WalletAddress,
		ActionType:    string(v.Action),
		Amount:        v.Amount.String(),
		Time:          v.BlockTime,
		Slot:          v.Slot,
		CoinName:      v.TokenName,
		TokenSymbol:   v.TokenSymbol,
		TokenLogo:     v.TokenLogo,
		TotalSupply:   deref(v.TotalSupply),
		AlphaGroup:    v.MoverRole,
		Name:          v.MoverName,
	}
	if v.Decimals != nil {
		resp.Decimal = *v.Decimals
	}
	if v.Metric != nil {
		score := newTokenScore(v.Metric)
		score.Marketcap = v.MarketCap
		score.History24hPrice = v.History24hPrice
		score.PriceChange24hPercent = v.PriceChange24hPercent
		score.Holders = v.Holders
		score.Liquidity = v.Liquidity
		score.Volume24h = v.Volume24hUSD
		score.Volume24hChange = v.Volume24hChange
		resp.Token = &score
	}
	return resp
}

// alphaMetrics serves GET /api/v1/alpha-move/metrics?addresses=a,b.
func (s *Server) alphaMetrics(c *gin.Context) {
	addresses, msg := parseAddresses(c.Query("addresses"))
	if msg != "" {
		Error(c, http.StatusBadRequest, msg, nil)
		return
	}

	metrics, err := s.opts.Metrics.GetByAddresses(c.Request.Context(), addresses)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load alpha metrics")
		Error(c, http.StatusInternalServerError, "failed to load alpha metrics", nil)
		return
	}

	out := make([]tokenScoreResponse, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, newTokenScore(m))
	}
	Ok(c, out, nil)
}

// moverTransactions serves GET /api/v1/alpha-move/transactions?limit=&offset=.
func (s *Server) moverTransactions(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultPageLimit)
	if !ok || limit < 1 || limit > maxPageLimit {
		Error(c, http.StatusBadRequest, "limit must be between 1 and 100", nil)
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok || offset < 0 {
		Error(c, http.StatusBadRequest, "offset must be non-negative", nil)
		return
	}

	ctx := c.Request.Context()
	views, err := s.opts.Transactions.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list mover transactions")
		Error(c, http.StatusInternalServerError, "failed to list mover transactions", nil)
		return
	}
	total, err := s.opts.Transactions.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count mover transactions")
		Error(c, http.StatusInternalServerError, "failed to count mover transactions", nil)
		return
	}

	out := make([]moverTransactionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, newMoverTransaction(v))
	}
	Ok(c, out, paginationMeta(limit, offset, total))
}

// parseAddresses splits a comma separated list, dropping blanks and duplicates.
// A non-empty msg describes why the list was rejected.
func parseAddresses(raw string) ([]string, string) {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		a := strings.TrimSpace(part)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		if err := solana.ValidateAddress(a); err != nil {
			return nil, "invalid address: " + a
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, "addresses is required"
	}
	if len(out) > maxMetricAddresses {
		return nil, "too many addresses"
	}
	return out, ""
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
