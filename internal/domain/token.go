package domain

import "time"

// SocialKey names a known social link slot.
type SocialKey string

const (
	SocialTwitter  SocialKey = "twitter"
	SocialTelegram SocialKey = "telegram"
	SocialDiscord  SocialKey = "discord"
	SocialWebsite  SocialKey = "website"
	SocialMedium   SocialKey = "medium"
	SocialGithub   SocialKey = "github"
)

// SocialKeys lists every slot SocialLinks understands.
var SocialKeys = []SocialKey{
	SocialTwitter, SocialTelegram, SocialDiscord, SocialWebsite, SocialMedium, SocialGithub,
}

// SocialLinks maps known keys to optional profile URLs.
// Unknown keys from upstream payloads are dropped.
type SocialLinks map[SocialKey]*string

// NewSocialLinks builds SocialLinks from a loosely typed upstream map.
func NewSocialLinks(raw map[string]*string) SocialLinks {
	links := make(SocialLinks)
	for _, k := range SocialKeys {
		if v, ok := raw[string(k)]; ok && v != nil && *v != "" {
			s := *v
			links[k] = &s
		}
	}
	return links
}

// Get returns the link for key, if present.
func (l SocialLinks) Get(key SocialKey) (string, bool) {
	v, ok := l[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// TokenOverview is the overview facet of a token.
type TokenOverview struct {
	Address                string
	Name                   string
	Symbol                 string
	LogoURI                *string
	Decimals               int
	TotalSupply            *float64
	Price                  *float64
	History24hPrice        *float64
	PriceChange24hPercent  *float64
	MarketCap              *float64
	Liquidity              *float64
	Holders                *int64
	Volume24hUSD           *float64
	Volume24hChangePercent *float64
	WebsiteURL             *string
	Socials                SocialLinks
}

// TokenMarket is the market facet of a token.
type TokenMarket struct {
	Address           string
	Price             *float64
	Liquidity         *float64
	MarketCap         *float64
	FDV               *float64
	CirculatingSupply *float64
	Holders           *int64
}

// TokenTrade is the trade/volume facet of a token.
type TokenTrade struct {
	Address                string
	Volume24hUSD           *float64
	Volume24hChangePercent *float64
	Trades24h              *int64
	Buys24h                *int64
	Sells24h               *int64
	UniqueWallets24h       *int64
}

// TokenProjection is the local snapshot of a token read by the API layer.
// Corresponds to token_projection table in PostgreSQL.
type TokenProjection struct {
	Address string // PK

	// overview columns
	Name                  string
	Symbol                string
	LogoURI               *string
	Decimals              int
	TotalSupply           *float64
	Price                 *float64
	History24hPrice       *float64
	PriceChange24hPercent *float64
	WebsiteURL            *string
	Socials               SocialLinks

	// market columns (overview also fills these when present)
	MarketCap         *float64
	Liquidity         *float64
	Holders           *int64
	FDV               *float64
	CirculatingSupply *float64

	// trade columns
	Volume24hUSD           *float64
	Volume24hChangePercent *float64
	Trades24h              *int64
	Buys24h                *int64
	Sells24h               *int64
	UniqueWallets24h       *int64

	UpdatedAt time.Time
}

// TokenMeta is the lightweight identity written by trending ingestion and backfill.
type TokenMeta struct {
	Address  string
	Name     string
	Symbol   string
	LogoURI  *string
	Decimals int
}

// DailyVolume is a token's 24h USD volume recorded for a UTC day.
// Corresponds to daily_volume table in PostgreSQL.
type DailyVolume struct {
	TokenAddress string    // PK part
	Day          time.Time // PK part, UTC midnight
	Volume24hUSD float64
	Name         string
	Symbol       string
	LogoURI      *string
	UpdatedAt    time.Time
}

// PricePoint is a price observation of a token.
// Corresponds to price_history table in ClickHouse.
type PricePoint struct {
	TokenAddress string
	Timestamp    time.Time
	Price        float64
	Volume24hUSD float64
}

// DailyClose is the last observed price of a UTC day.
type DailyClose struct {
	Day   time.Time
	Price float64
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
