package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoverWallet is a tracked smart-money wallet.
// Corresponds to mover_wallet table in PostgreSQL. Maintained outside the pipeline.
type MoverWallet struct {
	WalletAddress string // PK
	Role          string // alpha group tag, e.g. "kol", "fund"
	Name          string
	CreatedAt     time.Time
}

// Action is the direction of a mover transfer.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// MoverTransaction is a token transfer involving a tracked wallet.
// Corresponds to mover_transaction table in PostgreSQL.
type MoverTransaction struct {
	Signature     string // PK, natural idempotency key
	TokenAddress  string
	WalletAddress string
	Action        Action
	Amount        decimal.Decimal
	BlockTime     int64 // unix seconds
	Slot          int64
	UpdatedAt     time.Time
}

// MoverTransactionView is a mover transaction joined with registry and token data.
type MoverTransactionView struct {
	MoverTransaction
	MoverRole             string
	MoverName             string
	TokenName             *string
	TokenSymbol           *string
	TokenLogo             *string
	TotalSupply           *float64
	Decimals              *int
	Metric                *AlphaMetric // floored, nil if no metric row exists
	MarketCap             *float64
	History24hPrice       *float64
	PriceChange24hPercent *float64
	Holders               *int64
	Liquidity             *float64
	Volume24hUSD          *float64
	Volume24hChange       *float64
}
