package enrichment

import "testing"

func TestExtractTwitterHandle(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://twitter.com/bonk_inu", "bonk_inu"},
		{"https://x.com/bonk_inu/status/123", "bonk_inu"},
		{"https://www.x.com/@wif", "wif"},
		{"http://twitter.com/popcat?lang=en", "popcat"},
		{"HTTPS://X.COM/Jup", "Jup"},
		{"https://t.me/bonk", ""},
		{"twitter.com/bonk", ""},
		{"https://x.com/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractTwitterHandle(tt.url); got != tt.want {
			t.Errorf("ExtractTwitterHandle(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
