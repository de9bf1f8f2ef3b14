// Package discovery locates feed URLs for a homepage: declared alternates
// first, then progressively looser page heuristics, then path guessing as a
// last resort.
package discovery

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// MIME types that mark a <link rel="alternate"> as a feed.
var feedTypes = map[string]struct{}{
	"application/rss+xml":   {},
	"application/atom+xml":  {},
	"application/xml":       {},
	"text/xml":              {},
	"application/json":      {},
	"application/feed+json": {},
}

// Paths probed when the homepage declares no feeds at all. Ordered by how
// often they hit in practice; only the first MaxPathProbes are tried.
var commonFeedPaths = []string{
	"/feed",
	"/feed/",
	"/feeds",
	"/rss",
	"/rss/",
	"/rss.xml",
	"/atom.xml",
	"/index.xml",
	"/feed.xml",
	"/news/feed",
	"/news/rss",
	"/blog/feed",
	"/latest/rss",
	"/?feed=rss2",
	"/rss/news",
	"/rss/all",
}

var hrefFeedKeywords = []string{"rss", "feed", "atom", ".xml"}

// Discoverer finds candidate feed URLs on a homepage.
type Discoverer struct {
	fetcher fetcher.Fetcher
	cfg     *config.DiscoveryConfig
	logger  *slog.Logger
}

// NewDiscoverer creates a feed discoverer.
func NewDiscoverer(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		fetcher: f,
		cfg:     &cfg.Discovery,
		logger:  logger.With("component", "discovery"),
	}
}

// Discover returns candidate feed URLs for homepageURL, deduplicated and in
// confidence order. An unreachable homepage still falls through to path
// probing; discovery never returns an error, only an empty slice.
func (d *Discoverer) Discover(ctx context.Context, homepageURL string) []string {
	var feeds []string

	out := d.fetcher.Fetch(ctx, homepageURL, fetcher.PurposePage)
	if out.OK() {
		feeds = d.fromDocument(homepageURL, out.Body)
	} else {
		d.logger.Debug("homepage unreachable, falling back to path probes",
			"url", homepageURL, "error", out.Err)
	}

	// Path guessing only runs when the page itself yielded nothing; every
	// probe is a real request and the budget is deliberately small.
	if len(feeds) == 0 {
		feeds = d.probeCommonPaths(ctx, homepageURL)
	}

	return dedupe(feeds)
}

// fromDocument runs the four in-page heuristics, in confidence order.
func (d *Discoverer) fromDocument(baseURL, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var feeds []string

	// Declared alternates. A loose substring match on the type catches
	// sloppy values like "text/rss+xml".
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
		_, known := feedTypes[typ]
		if known || strings.Contains(typ, "rss") || strings.Contains(typ, "atom") || strings.Contains(typ, "feed") {
			feeds = appendResolved(feeds, baseURL, href)
		}
	})

	// og:see_also meta tags sometimes carry the feed URL.
	doc.Find(`meta[property="og:see_also"]`).Each(func(_ int, s *goquery.Selection) {
		content := s.AttrOr("content", "")
		lower := strings.ToLower(content)
		if strings.Contains(lower, "rss") || strings.Contains(lower, "feed") {
			feeds = append(feeds, content)
		}
	})

	// Anchors that look like feed links, by href keyword or visible "rss".
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		hrefLower := strings.ToLower(href)
		text := strings.ToLower(s.Text())
		for _, kw := range hrefFeedKeywords {
			if strings.Contains(hrefLower, kw) {
				feeds = appendResolved(feeds, baseURL, href)
				return
			}
		}
		if strings.Contains(text, "rss") {
			feeds = appendResolved(feeds, baseURL, href)
		}
	})

	// RSS icon images wrapped in an anchor.
	doc.Find("a[href] img").Each(func(_ int, s *goquery.Selection) {
		alt := strings.ToLower(s.AttrOr("alt", ""))
		src := strings.ToLower(s.AttrOr("src", ""))
		if strings.Contains(alt, "rss") || strings.Contains(alt, "feed") || strings.Contains(src, "rss") {
			if href, ok := s.Closest("a").Attr("href"); ok {
				feeds = appendResolved(feeds, baseURL, href)
			}
		}
	})

	return feeds
}

// probeCommonPaths requests well-known feed paths off the site root. Probes
// carry no retry budget; a probe counts as a feed when either the
// Content-Type or the first bytes of the body look like XML or JSON.
func (d *Discoverer) probeCommonPaths(ctx context.Context, homepageURL string) []string {
	u, err := url.Parse(homepageURL)
	if err != nil || u.Host == "" {
		return nil
	}
	base := u.Scheme + "://" + u.Host

	limit := d.cfg.MaxPathProbes
	if limit <= 0 || limit > len(commonFeedPaths) {
		limit = len(commonFeedPaths)
	}

	var feeds []string
	for _, p := range commonFeedPaths[:limit] {
		candidate := base + p
		out := d.fetcher.FetchOnce(ctx, candidate, fetcher.PurposeFeed)
		if !out.OK() {
			continue
		}
		if looksLikeFeedType(out.ContentType) || looksLikeFeedBody(out.Body) {
			feeds = append(feeds, candidate)
		}
	}
	return feeds
}

// looksLikeFeedType matches feed-ish Content-Type values.
func looksLikeFeedType(ctype string) bool {
	ct := strings.ToLower(ctype)
	for _, t := range []string{"xml", "rss", "atom", "json"} {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}

// looksLikeFeedBody sniffs the first bytes of a response body.
func looksLikeFeedBody(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 100 {
		head = head[:100]
	}
	return strings.HasPrefix(head, "<?xml") ||
		strings.HasPrefix(head, "<rss") ||
		strings.HasPrefix(head, "<feed") ||
		strings.HasPrefix(head, "{")
}

// appendResolved resolves href against base and appends it when it parses.
func appendResolved(feeds []string, base, href string) []string {
	b, err := url.Parse(base)
	if err != nil {
		return feeds
	}
	h, err := url.Parse(href)
	if err != nil {
		return feeds
	}
	return append(feeds, b.ResolveReference(h).String())
}

// dedupe removes duplicates by normalized form, preserving first-seen order
// and the original spelling.
func dedupe(feeds []string) []string {
	seen := make(map[string]struct{}, len(feeds))
	unique := make([]string, 0, len(feeds))
	for _, f := range feeds {
		norm := types.NormalizeLink(f)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}
