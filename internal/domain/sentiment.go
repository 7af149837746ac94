package domain

import "time"

// Chain keys used in sentiment tables.
const (
	ChainBTC    = "BTC"
	ChainSolana = "solana"
)

// Fear/greed classifications.
const (
	ClassExtremeFear  = "Extreme Fear"
	ClassFear         = "Fear"
	ClassGreed        = "Greed"
	ClassExtremeGreed = "Extreme Greed"
)

// FearGreedSample is one fear/greed value per UTC day per chain.
// Corresponds to fear_greed_sample table in PostgreSQL.
type FearGreedSample struct {
	Day            time.Time // PK part, UTC midnight
	Chain          string    // PK part
	Value          int       // 0..100
	Classification string
	RecordedAt     time.Time
}

// BlockchainVolumeSample is the DEX volume overview of a chain for a UTC day.
// Corresponds to blockchain_volume_sample table in PostgreSQL.
type BlockchainVolumeSample struct {
	Day              time.Time // PK part
	Chain            string    // PK part
	Total24h         float64
	Total48hTo24h    float64
	Total7d          float64
	Total14dTo7d     float64
	Total30d         float64
	Total60dTo30d    float64
	Total1y          float64
	Total7DaysAgo    float64
	Total30DaysAgo   float64
	Change1d         float64
	Change7d         float64
	Change1m         float64
	Change7dOver7d   float64
	Change30dOver30d float64
	RecordedAt       time.Time
}
