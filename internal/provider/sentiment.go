package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"alpha-move/internal/domain"
)

// Sentiment API roots.
const (
	DefaultAlternativeURL = "https://api.alternative.me"
	DefaultDefiLlamaURL   = "https://api.llama.fi"
)

// Alternative wraps the alternative.me crypto fear and greed index.
type Alternative struct {
	c *Client
}

// NewAlternative creates an alternative.me client.
func NewAlternative(baseURL string, opts ...ClientOption) *Alternative {
	if baseURL == "" {
		baseURL = DefaultAlternativeURL
	}
	return &Alternative{c: NewClient("alternative", baseURL, opts...)}
}

// FearGreedIndex returns up to limit daily index values, newest first, as BTC samples.
func (a *Alternative) FearGreedIndex(ctx context.Context, limit int) ([]*domain.FearGreedSample, error) {
	var resp struct {
		Data []struct {
			Value               string `json:"value"`
			ValueClassification string `json:"value_classification"`
			Timestamp           string `json:"timestamp"`
		} `json:"data"`
		Metadata struct {
			Error *string `json:"error"`
		} `json:"metadata"`
	}
	if err := a.c.getJSON(ctx, "fng", "/fng/", url.Values{"limit": {strconv.Itoa(limit)}}, &resp); err != nil {
		return nil, err
	}
	if resp.Metadata.Error != nil && *resp.Metadata.Error != "" {
		return nil, fmt.Errorf("alternative fng: %w: %s", ErrUnsuccessful, *resp.Metadata.Error)
	}

	samples := make([]*domain.FearGreedSample, 0, len(resp.Data))
	for _, d := range resp.Data {
		value, err := strconv.Atoi(d.Value)
		if err != nil {
			return nil, &DecodeError{Provider: "alternative", Endpoint: "fng", Err: fmt.Errorf("value %q: %w", d.Value, err)}
		}
		ts, err := strconv.ParseInt(d.Timestamp, 10, 64)
		if err != nil {
			return nil, &DecodeError{Provider: "alternative", Endpoint: "fng", Err: fmt.Errorf("timestamp %q: %w", d.Timestamp, err)}
		}
		samples = append(samples, &domain.FearGreedSample{
			Day:            domain.StartOfDay(time.Unix(ts, 0)),
			Chain:          domain.ChainBTC,
			Value:          value,
			Classification: d.ValueClassification,
		})
	}
	return samples, nil
}

// DefiLlama wraps the DefiLlama DEX volume overview API.
type DefiLlama struct {
	c *Client
}

// NewDefiLlama creates a DefiLlama client.
func NewDefiLlama(baseURL string, opts ...ClientOption) *DefiLlama {
	if baseURL == "" {
		baseURL = DefaultDefiLlamaURL
	}
	return &DefiLlama{c: NewClient("defillama", baseURL, opts...)}
}

// ChainVolume fetches the DEX daily volume overview of chain. Day is left for the caller to set.
func (d *DefiLlama) ChainVolume(ctx context.Context, chain string) (*domain.BlockchainVolumeSample, error) {
	var resp struct {
		Total24h         float64 `json:"total24h"`
		Total48hTo24h    float64 `json:"total48hto24h"`
		Total7d          float64 `json:"total7d"`
		Total14dTo7d     float64 `json:"total14dto7d"`
		Total60dTo30d    float64 `json:"total60dto30d"`
		Total30d         float64 `json:"total30d"`
		Total1y          float64 `json:"total1y"`
		Change1d         float64 `json:"change_1d"`
		Change7d         float64 `json:"change_7d"`
		Change1m         float64 `json:"change_1m"`
		Change7dOver7d   float64 `json:"change_7dover7d"`
		Change30dOver30d float64 `json:"change_30dover30d"`
		Total7DaysAgo    float64 `json:"total7DaysAgo"`
		Total30DaysAgo   float64 `json:"total30DaysAgo"`
	}
	q := url.Values{
		"excludeTotalDataChart":          {"true"},
		"excludeTotalDataChartBreakdown": {"true"},
		"dataType":                       {"dailyVolume"},
	}
	if err := d.c.getJSON(ctx, "overview_dexs", "/overview/dexs/"+url.PathEscape(chain), q, &resp); err != nil {
		return nil, err
	}

	return &domain.BlockchainVolumeSample{
		Chain:            chain,
		Total24h:         resp.Total24h,
		Total48hTo24h:    resp.Total48hTo24h,
		Total7d:          resp.Total7d,
		Total14dTo7d:     resp.Total14dTo7d,
		Total30d:         resp.Total30d,
		Total60dTo30d:    resp.Total60dTo30d,
		Total1y:          resp.Total1y,
		Total7DaysAgo:    resp.Total7DaysAgo,
		Total30DaysAgo:   resp.Total30DaysAgo,
		Change1d:         resp.Change1d,
		Change7d:         resp.Change7d,
		Change1m:         resp.Change1m,
		Change7dOver7d:   resp.Change7dOver7d,
		Change30dOver30d: resp.Change30dOver30d,
	}, nil
}
