package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"alpha-move/internal/domain"
)

// DefaultBirdeyeURL is the public Birdeye API root.
const DefaultBirdeyeURL = "https://public-api.birdeye.so"

// ErrUnsuccessful is returned when Birdeye answers 200 with success=false.
var ErrUnsuccessful = errors.New("upstream reported failure")

// Birdeye wraps the Birdeye token data API.
type Birdeye struct {
	c *Client
}

// NewBirdeye creates a Birdeye client. chain is sent as the x-chain header.
func NewBirdeye(baseURL, apiKey, chain string, opts ...ClientOption) *Birdeye {
	if baseURL == "" {
		baseURL = DefaultBirdeyeURL
	}
	if chain == "" {
		chain = domain.ChainSolana
	}
	opts = append([]ClientOption{WithHeader("X-API-KEY", apiKey), WithHeader("x-chain", chain)}, opts...)
	return &Birdeye{c: NewClient("birdeye", baseURL, opts...)}
}

type birdeyeEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func birdeyeGet[T any](ctx context.Context, b *Birdeye, endpoint, path string, q url.Values) (T, error) {
	var env birdeyeEnvelope[T]
	if err := b.c.getJSON(ctx, endpoint, path, q, &env); err != nil {
		return env.Data, err
	}
	if !env.Success {
		return env.Data, fmt.Errorf("birdeye %s: %w: %s", endpoint, ErrUnsuccessful, env.Message)
	}
	return env.Data, nil
}

type overviewData struct {
	Address               string             `json:"address"`
	Name                  string             `json:"name"`
	Symbol                string             `json:"symbol"`
	Decimals              int                `json:"decimals"`
	LogoURI               *string            `json:"logoURI"`
	Extensions            map[string]*string `json:"extensions"`
	Price                 *float64           `json:"price"`
	History24hPrice       *float64           `json:"history24hPrice"`
	PriceChange24hPercent *float64           `json:"priceChange24hPercent"`
	Liquidity             *float64           `json:"liquidity"`
	MarketCap             *float64           `json:"marketCap"`
	MC                    *float64           `json:"mc"`
	TotalSupply           *float64           `json:"totalSupply"`
	Supply                *float64           `json:"supply"`
	Holder                *float64           `json:"holder"`
	V24hUSD               *float64           `json:"v24hUSD"`
	V24hChangePercent     *float64           `json:"v24hChangePercent"`
}

// TokenOverview fetches the overview facet of a token.
func (b *Birdeye) TokenOverview(ctx context.Context, address string) (*domain.TokenOverview, error) {
	d, err := birdeyeGet[*overviewData](ctx, b, "token_overview", "/defi/token_overview", url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("birdeye token_overview: %w: empty data", ErrUnsuccessful)
	}

	o := &domain.TokenOverview{
		Address:                address,
		Name:                   d.Name,
		Symbol:                 d.Symbol,
		LogoURI:                d.LogoURI,
		Decimals:               d.Decimals,
		TotalSupply:            firstSet(d.TotalSupply, d.Supply),
		Price:                  d.Price,
		History24hPrice:        d.History24hPrice,
		PriceChange24hPercent:  d.PriceChange24hPercent,
		MarketCap:              firstSet(d.MarketCap, d.MC),
		Liquidity:              d.Liquidity,
		Holders:                floatToInt(d.Holder),
		Volume24hUSD:           d.V24hUSD,
		Volume24hChangePercent: d.V24hChangePercent,
		Socials:                domain.NewSocialLinks(d.Extensions),
	}
	if w, ok := o.Socials.Get(domain.SocialWebsite); ok {
		o.WebsiteURL = &w
	}
	return o, nil
}

type marketData struct {
	Price             *float64 `json:"price"`
	Liquidity         *float64 `json:"liquidity"`
	MarketCap         *float64 `json:"market_cap"`
	FDV               *float64 `json:"fdv"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	Holder            *float64 `json:"holder"`
}

// TokenMarket fetches the market facet of a token.
func (b *Birdeye) TokenMarket(ctx context.Context, address string) (*domain.TokenMarket, error) {
	d, err := birdeyeGet[*marketData](ctx, b, "market_data", "/defi/v3/token/market-data", url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("birdeye market_data: %w: empty data", ErrUnsuccessful)
	}
	return &domain.TokenMarket{
		Address:           address,
		Price:             d.Price,
		Liquidity:         d.Liquidity,
		MarketCap:         d.MarketCap,
		FDV:               d.FDV,
		CirculatingSupply: d.CirculatingSupply,
		Holders:           floatToInt(d.Holder),
	}, nil
}

type tradeData struct {
	Volume24hUSD           *float64 `json:"volume_24h_usd"`
	Volume24hChangePercent *float64 `json:"volume_24h_change_percent"`
	Trade24h               *float64 `json:"trade_24h"`
	Buy24h                 *float64 `json:"buy_24h"`
	Sell24h                *float64 `json:"sell_24h"`
	UniqueWallet24h        *float64 `json:"unique_wallet_24h"`
}

// TokenTrade fetches the trade facet of a token.
func (b *Birdeye) TokenTrade(ctx context.Context, address string) (*domain.TokenTrade, error) {
	d, err := birdeyeGet[*tradeData](ctx, b, "trade_data", "/defi/v3/token/trade-data/single", url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("birdeye trade_data: %w: empty data", ErrUnsuccessful)
	}
	return &domain.TokenTrade{
		Address:                address,
		Volume24hUSD:           d.Volume24hUSD,
		Volume24hChangePercent: d.Volume24hChangePercent,
		Trades24h:              floatToInt(d.Trade24h),
		Buys24h:                floatToInt(d.Buy24h),
		Sells24h:               floatToInt(d.Sell24h),
		UniqueWallets24h:       floatToInt(d.UniqueWallet24h),
	}, nil
}

// TopHolderLimit is the number of holders requested by TopHolderOwners.
const TopHolderLimit = 100

type holderData struct {
	Items []struct {
		Owner string `json:"owner"`
	} `json:"items"`
}

// TopHolderOwners returns the owner wallets of the largest token accounts.
func (b *Birdeye) TopHolderOwners(ctx context.Context, address string) ([]string, error) {
	q := url.Values{
		"address": {address},
		"offset":  {"0"},
		"limit":   {strconv.Itoa(TopHolderLimit)},
	}
	d, err := birdeyeGet[holderData](ctx, b, "holder", "/defi/v3/token/holder", q)
	if err != nil {
		return nil, err
	}

	owners := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		if it.Owner != "" {
			owners = append(owners, it.Owner)
		}
	}
	return owners, nil
}

// TrendingToken is one entry of the trending list.
type TrendingToken struct {
	Address      string   `json:"address"`
	Decimals     int      `json:"decimals"`
	Liquidity    float64  `json:"liquidity"`
	LogoURI      *string  `json:"logoURI"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	Volume24hUSD float64  `json:"volume24hUSD"`
	Rank         int      `json:"rank"`
	Price        *float64 `json:"price"`
}

type trendingData struct {
	Tokens []TrendingToken `json:"tokens"`
}

// Trending returns tokens ranked by Birdeye, rank ascending.
func (b *Birdeye) Trending(ctx context.Context, offset, limit int) ([]TrendingToken, error) {
	q := url.Values{
		"sort_by":   {"rank"},
		"sort_type": {"asc"},
		"offset":    {strconv.Itoa(offset)},
		"limit":     {strconv.Itoa(limit)},
	}
	d, err := birdeyeGet[trendingData](ctx, b, "token_trending", "/defi/token_trending", q)
	if err != nil {
		return nil, err
	}
	return d.Tokens, nil
}

type historyData struct {
	Items []struct {
		UnixTime int64   `json:"unixTime"`
		Value    float64 `json:"value"`
	} `json:"items"`
}

// HistoryPrice returns price points of address in [from, to] at the given interval ("1D", "1H").
func (b *Birdeye) HistoryPrice(ctx context.Context, address, interval string, from, to time.Time) ([]*domain.PricePoint, error) {
	q := url.Values{
		"address":      {address},
		"address_type": {"token"},
		"type":         {interval},
		"time_from":    {strconv.FormatInt(from.Unix(), 10)},
		"time_to":      {strconv.FormatInt(to.Unix(), 10)},
	}
	d, err := birdeyeGet[historyData](ctx, b, "history_price", "/defi/history_price", q)
	if err != nil {
		return nil, err
	}

	points := make([]*domain.PricePoint, 0, len(d.Items))
	for _, it := range d.Items {
		points = append(points, &domain.PricePoint{
			TokenAddress: address,
			Timestamp:    time.Unix(it.UnixTime, 0).UTC(),
			Price:        it.Value,
		})
	}
	return points, nil
}

func firstSet(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func floatToInt(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}
