package types

import (
	"testing"
	"time"
)

func TestNormalizeLinkIdempotent(t *testing.T) {
	for _, u := range []string{
		"https://x.com/a/",
		"https://X.COM/a",
		"https://example.com/News/Story-1///",
		"http://example.com",
		"",
	} {
		once := NormalizeLink(u)
		if twice := NormalizeLink(once); twice != once {
			t.Errorf("NormalizeLink not idempotent for %q: %q then %q", u, once, twice)
		}
	}
}

func TestNormalizeLinkDeduplicationEquivalence(t *testing.T) {
	// Case and trailing-slash variants of the same link must collapse to
	// one key so the dedup map treats them as duplicates.
	a := NormalizeLink("https://x.com/a/")
	b := NormalizeLink("https://X.COM/a")
	if a != b {
		t.Errorf("variants normalize differently: %q vs %q", a, b)
	}
}

func TestDisplayNameFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		site SiteDefinition
		want string
	}{
		{"explicit name wins", SiteDefinition{Name: "MedTech Dive", URL: "https://medtechdive.com"}, "MedTech Dive"},
		{"homepage host", SiteDefinition{URL: "https://www.medgadget.com/news"}, "www.medgadget.com"},
		{"first feed host", SiteDefinition{Feeds: []string{"https://massdevice.com/feed/", "https://other.example/rss"}}, "massdevice.com"},
		{"nothing usable", SiteDefinition{}, UnknownSourceSentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.site.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionable(t *testing.T) {
	if (SiteDefinition{Name: "named but empty"}).Actionable() {
		t.Error("site with neither URL nor feeds must not be actionable")
	}
	if !(SiteDefinition{URL: "https://example.com"}).Actionable() {
		t.Error("site with a homepage is actionable")
	}
	if !(SiteDefinition{Feeds: []string{"https://example.com/rss"}}).Actionable() {
		t.Error("site with a feed is actionable")
	}
}

func TestParseTimeLoose(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"Mon, 02 Jun 2025 10:30:00 +0000", time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)},
		{"2025-05-20T08:00:00Z", time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)},
		{"2025-05-20", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)},
		{"January 2, 2025", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"  2025-05-20  ", time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParseTimeLoose(tt.value)
		if !ok {
			t.Errorf("ParseTimeLoose(%q) failed", tt.value)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimeLoose(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	for _, bad := range []string{"", "   ", "yesterday", "13/45/2025"} {
		if _, ok := ParseTimeLoose(bad); ok {
			t.Errorf("ParseTimeLoose(%q) should fail", bad)
		}
	}
}
