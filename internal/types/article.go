package types

import (
	"net/url"
	"strings"
)

// UntitledSentinel is substituted when a feed entry or scraped item carries
// no usable title.
const UntitledSentinel = "Untitled"

// UnknownSourceSentinel is the display name for a site that has neither a
// configured name, a homepage, nor an explicit feed.
const UnknownSourceSentinel = "Unknown Source"

// Article is one normalized news item. It is created fresh on every refresh
// cycle; nothing mutates it after the orchestrator hands it off.
type Article struct {
	Title     string   `json:"title"`
	Link      string   `json:"link"`
	Summary   string   `json:"summary"`
	Published string   `json:"published,omitempty"` // RFC 3339, empty when unparseable
	Image     string   `json:"image,omitempty"`
	Source    string   `json:"source,omitempty"`
	Site      string   `json:"site,omitempty"`
	Feed      string   `json:"feed,omitempty"` // empty when obtained via scraping
	Companies []string `json:"companies"`
	Products  []string `json:"products"`
}

// SiteDefinition is one configured news source. At least one of URL or Feeds
// must be present for the site to be actionable.
type SiteDefinition struct {
	Name  string   `mapstructure:"name"  yaml:"name"`
	URL   string   `mapstructure:"url"   yaml:"url"`
	Feeds []string `mapstructure:"feeds" yaml:"feeds"`
}

// Actionable reports whether the site carries enough configuration to fetch
// anything at all.
func (s SiteDefinition) Actionable() bool {
	return s.URL != "" || len(s.Feeds) > 0
}

// DisplayName resolves the human-readable name for the site: explicit name,
// else homepage domain, else the first feed's domain, else a sentinel.
func (s SiteDefinition) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.URL != "" {
		if host := Hostname(s.URL); host != "" {
			return host
		}
	}
	if len(s.Feeds) > 0 {
		if host := Hostname(s.Feeds[0]); host != "" {
			return host
		}
	}
	return UnknownSourceSentinel
}

// Hostname extracts the host portion of a raw URL, or "" if it does not parse.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// NormalizeLink canonicalizes a link for deduplication only: trailing slash
// and case are stripped. The stored Article.Link keeps its original form.
func NormalizeLink(rawURL string) string {
	return strings.ToLower(strings.TrimRight(rawURL, "/"))
}
