// Package webhook classifies enhanced-transaction batches against the mover registry.
package webhook

import (
	"encoding/json"
)

// TokenTransfer is one SPL token movement inside an enhanced transaction.
type TokenTransfer struct {
	FromUserAccount  string      `json:"fromUserAccount"`
	ToUserAccount    string      `json:"toUserAccount"`
	FromTokenAccount string      `json:"fromTokenAccount"`
	ToTokenAccount   string      `json:"toTokenAccount"`
	TokenAmount      json.Number `json:"tokenAmount"`
	Mint             string      `json:"mint"`
	TokenStandard    string      `json:"tokenStandard"`
}

// NativeTransfer is one lamport movement inside an enhanced transaction.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// EnhancedTransaction is one element of a webhook delivery.
type EnhancedTransaction struct {
	Signature       string           `json:"signature"`
	Slot            int64            `json:"slot"`
	Timestamp       int64            `json:"timestamp"`
	Type            string           `json:"type,omitempty"`
	Source          string           `json:"source,omitempty"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
}
