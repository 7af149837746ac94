package enrichment

import "strings"

var twitterPrefixes = []string{
	"https://twitter.com/",
	"https://x.com/",
	"https://www.twitter.com/",
	"https://www.x.com/",
	"http://twitter.com/",
	"http://x.com/",
	"http://www.twitter.com/",
	"http://www.x.com/",
}

// ExtractTwitterHandle returns the account handle from a Twitter/X profile URL.
// Returns "" when url is not a recognised profile link.
func ExtractTwitterHandle(url string) string {
	url = strings.TrimSpace(url)
	for _, p := range twitterPrefixes {
		if len(url) < len(p) || !strings.EqualFold(url[:len(p)], p) {
			continue
		}
		rest := url[len(p):]
		if i := strings.IndexAny(rest, "/?#"); i >= 0 {
			rest = rest[:i]
		}
		return strings.TrimPrefix(rest, "@")
	}
	return ""
}
