package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alpha-move/internal/domain"
)

func newBirdeyeServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("x-chain") != "solana" {
			t.Errorf("expected x-chain solana, got %q", r.Header.Get("x-chain"))
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestBirdeye_TokenOverview(t *testing.T) {
	server := newBirdeyeServer(t, map[string]string{
		"/defi/token_overview": `{"success":true,"data":{
			"address":"Mint1","name":"Bonk","symbol":"BONK","decimals":5,
			"logoURI":"https://img/bonk.png",
			"extensions":{"twitter":"https://twitter.com/bonk_inu","website":"https://bonkcoin.com","coingeckoId":"bonk","discord":null},
			"price":0.00002,"history24hPrice":0.000019,"priceChange24hPercent":5.2,
			"liquidity":20000000,"mc":1500000000,"supply":88000000000000,"holder":912345.0,
			"v24hUSD":300000000,"v24hChangePercent":-12.5}}`,
	})
	defer server.Close()

	b := NewBirdeye(server.URL, "key", "")
	o, err := b.TokenOverview(context.Background(), "Mint1")
	if err != nil {
		t.Fatalf("TokenOverview: %v", err)
	}

	if o.Symbol != "BONK" || o.Decimals != 5 {
		t.Errorf("unexpected identity: %+v", o)
	}
	if o.MarketCap == nil || *o.MarketCap != 1.5e9 {
		t.Errorf("expected mc fallback, got %v", o.MarketCap)
	}
	if o.TotalSupply == nil || *o.TotalSupply != 8.8e13 {
		t.Errorf("expected supply fallback, got %v", o.TotalSupply)
	}
	if o.Holders == nil || *o.Holders != 912345 {
		t.Errorf("expected holders 912345, got %v", o.Holders)
	}
	if tw, ok := o.Socials.Get(domain.SocialTwitter); !ok || tw != "https://twitter.com/bonk_inu" {
		t.Errorf("unexpected twitter link %q", tw)
	}
	if _, ok := o.Socials.Get(domain.SocialDiscord); ok {
		t.Error("null discord must be dropped")
	}
	if o.WebsiteURL == nil || *o.WebsiteURL != "https://bonkcoin.com" {
		t.Errorf("unexpected website %v", o.WebsiteURL)
	}
}

func TestBirdeye_Unsuccessful(t *testing.T) {
	server := newBirdeyeServer(t, map[string]string{
		"/defi/token_overview": `{"success":false,"message":"Not found"}`,
	})
	defer server.Close()

	_, err := NewBirdeye(server.URL, "key", "").TokenOverview(context.Background(), "Mint1")
	if !errors.Is(err, ErrUnsuccessful) {
		t.Fatalf("expected ErrUnsuccessful, got %v", err)
	}
}

func TestBirdeye_MarketAndTrade(t *testing.T) {
	server := newBirdeyeServer(t, map[string]string{
		"/defi/v3/token/market-data":       `{"success":true,"data":{"price":1.5,"liquidity":1000,"market_cap":5000,"fdv":6000,"circulating_supply":42,"holder":77}}`,
		"/defi/v3/token/trade-data/single": `{"success":true,"data":{"volume_24h_usd":123.4,"volume_24h_change_percent":-3,"trade_24h":50,"buy_24h":30,"sell_24h":20,"unique_wallet_24h":12}}`,
	})
	defer server.Close()

	b := NewBirdeye(server.URL, "key", "solana")
	ctx := context.Background()

	m, err := b.TokenMarket(ctx, "Mint1")
	if err != nil {
		t.Fatalf("TokenMarket: %v", err)
	}
	if m.FDV == nil || *m.FDV != 6000 || m.Holders == nil || *m.Holders != 77 {
		t.Errorf("unexpected market: %+v", m)
	}

	tr, err := b.TokenTrade(ctx, "Mint1")
	if err != nil {
		t.Fatalf("TokenTrade: %v", err)
	}
	if tr.Buys24h == nil || *tr.Buys24h != 30 || tr.Volume24hUSD == nil || *tr.Volume24hUSD != 123.4 {
		t.Errorf("unexpected trade: %+v", tr)
	}
}

func TestBirdeye_TopHolderOwners(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success":true,"data":{"items":[{"owner":"W1"},{"owner":""},{"owner":"W2"}]}}`))
	}))
	defer server.Close()

	owners, err := NewBirdeye(server.URL, "key", "").TopHolderOwners(context.Background(), "Mint1")
	if err != nil {
		t.Fatalf("TopHolderOwners: %v", err)
	}
	if len(owners) != 2 || owners[0] != "W1" || owners[1] != "W2" {
		t.Errorf("unexpected owners %v", owners)
	}
	if gotQuery != "address=Mint1&limit=100&offset=0" {
		t.Errorf("unexpected query %q", gotQuery)
	}
}

func TestBirdeye_TrendingAndHistory(t *testing.T) {
	server := newBirdeyeServer(t, map[string]string{
		"/defi/token_trending": `{"success":true,"data":{"tokens":[{"address":"T1","decimals":6,"liquidity":10,"logoURI":"l","name":"One","symbol":"ONE","volume24hUSD":99.5,"rank":1,"price":0.1}]}}`,
		"/defi/history_price":  `{"success":true,"data":{"items":[{"unixTime":1700000000,"value":20.5},{"unixTime":1700086400,"value":21}]}}`,
	})
	defer server.Close()

	b := NewBirdeye(server.URL, "key", "")
	ctx := context.Background()

	tokens, err := b.Trending(ctx, 0, 20)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Volume24hUSD != 99.5 || tokens[0].Rank != 1 {
		t.Errorf("unexpected trending %+v", tokens)
	}

	points, err := b.HistoryPrice(ctx, "Mint1", "1D", time.Unix(1699000000, 0), time.Unix(1700100000, 0))
	if err != nil {
		t.Fatalf("HistoryPrice: %v", err)
	}
	if len(points) != 2 || points[1].Price != 21 || !points[0].Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected points %+v", points)
	}
}
