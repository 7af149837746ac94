package provider

import (
	"context"
	"net/url"
)

// DefaultMoniURL is the Moni discover API root.
const DefaultMoniURL = "https://api.discover.getmoni.io/api/v2"

// SmartEngagement is the social score of a Twitter account.
type SmartEngagement struct {
	SmartFollowersCount int64   `json:"smartFollowersCount"`
	FollowersScore      float64 `json:"followersScore"`
	MentionsCount       int64   `json:"mentionsCount"`
	SmartMentionsCount  int64   `json:"smartMentionsCount"`
}

// Moni wraps the Moni social intelligence API.
type Moni struct {
	c *Client
}

// NewMoni creates a Moni client.
func NewMoni(baseURL, apiKey string, opts ...ClientOption) *Moni {
	if baseURL == "" {
		baseURL = DefaultMoniURL
	}
	opts = append([]ClientOption{WithHeader("Api-Key", apiKey)}, opts...)
	return &Moni{c: NewClient("moni", baseURL, opts...)}
}

// SmartEngagement fetches the engagement score of a Twitter handle.
func (m *Moni) SmartEngagement(ctx context.Context, handle string) (*SmartEngagement, error) {
	var resp struct {
		SmartEngagement SmartEngagement `json:"smartEngagement"`
	}
	path := "/twitters/" + url.PathEscape(handle) + "/info/full"
	if err := m.c.getJSON(ctx, "twitter_info", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.SmartEngagement, nil
}
