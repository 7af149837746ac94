package provider

import (
	"context"
	"net/url"
)

// DefaultSafetyURL is the token safety orchestration API root.
const DefaultSafetyURL = "https://l7db1lpgkb.execute-api.us-east-2.amazonaws.com/prod"

// Safety wraps the token safety scoring API.
type Safety struct {
	c *Client
}

// NewSafety creates a Safety client.
func NewSafety(baseURL string, opts ...ClientOption) *Safety {
	if baseURL == "" {
		baseURL = DefaultSafetyURL
	}
	return &Safety{c: NewClient("safety", baseURL, opts...)}
}

// SafetyScore returns the 0..100 safety score of a token.
func (s *Safety) SafetyScore(ctx context.Context, tokenAddress string) (float64, error) {
	var resp struct {
		Orchestration struct {
			SafetyScore float64 `json:"safety_score"`
		} `json:"orchestration"`
	}
	if err := s.c.getJSON(ctx, "orchestration", "/orchestration", url.Values{"ca": {tokenAddress}}, &resp); err != nil {
		return 0, err
	}
	return resp.Orchestration.SafetyScore, nil
}
