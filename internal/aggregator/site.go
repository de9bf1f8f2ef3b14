// Package aggregator orchestrates the acquisition strategies per site and
// runs the whole fleet of sites on a schedule.
package aggregator

import (
	"context"
	"log/slog"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/browser"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/discovery"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/enrich"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/feed"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/observability"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/scraper"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Renderer is the slice of the browser layer the aggregator needs. The
// browser package's Renderer satisfies it; tests substitute their own.
type Renderer interface {
	Available() bool
	NeedsBrowser(rawURL string) bool
	Render(ctx context.Context, rawURL, waitSelector string) (string, error)
}

// Discoverer finds feed URLs for a homepage.
type Discoverer interface {
	Discover(ctx context.Context, homepageURL string) []string
}

// FeedParser turns feed documents into articles.
type FeedParser interface {
	Parse(ctx context.Context, feedURL string) ([]types.Article, string)
	ParseContent(content, feedURL string) ([]types.Article, string)
}

// HomepageScraper extracts listings from homepage HTML.
type HomepageScraper interface {
	Scrape(ctx context.Context, homepageURL string) []types.Article
	ScrapeContent(htmlBody, homepageURL string) []types.Article
}

var (
	_ Discoverer      = (*discovery.Discoverer)(nil)
	_ FeedParser      = (*feed.Parser)(nil)
	_ HomepageScraper = (*scraper.HomepageScraper)(nil)
	_ Renderer        = (*browser.Renderer)(nil)
)

// SiteAggregator runs the strategy cascade for one site: explicit feeds,
// discovered feeds, homepage scraping, with a browser fallback at each step
// for flagged domains.
type SiteAggregator struct {
	discoverer Discoverer
	feeds      FeedParser
	scraper    HomepageScraper
	renderer   Renderer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewSiteAggregator wires the per-site pipeline.
func NewSiteAggregator(d Discoverer, fp FeedParser, hs HomepageScraper, r Renderer, metrics *observability.Metrics, logger *slog.Logger) *SiteAggregator {
	return &SiteAggregator{
		discoverer: d,
		feeds:      fp,
		scraper:    hs,
		renderer:   r,
		metrics:    metrics,
		logger:     logger.With("component", "aggregator"),
	}
}

// Fetch collects all articles for one site. Every article comes back
// tagged with the site's display name and enriched with entities. Trouble
// with individual feeds degrades to the next strategy; the only error is a
// site with nothing to act on.
func (sa *SiteAggregator) Fetch(ctx context.Context, site types.SiteDefinition) (string, []types.Article, error) {
	name := site.DisplayName()
	if !site.Actionable() {
		return name, nil, types.ErrSiteNotUsable
	}

	feedURLs := append([]string{}, site.Feeds...)
	if site.URL != "" {
		discovered := sa.discoverer.Discover(ctx, site.URL)
		sa.metrics.FeedsDiscovered.Add(int64(len(discovered)))
		feedURLs = append(feedURLs, discovered...)
	}

	var articles []types.Article
	seen := make(map[string]struct{})

	for _, feedURL := range feedURLs {
		items, sourceTitle := sa.fetchFeed(ctx, feedURL)
		for _, it := range items {
			if it.Link == "" {
				continue
			}
			norm := types.NormalizeLink(it.Link)
			if _, dup := seen[norm]; dup {
				continue
			}
			seen[norm] = struct{}{}
			it.Site = name
			if sourceTitle != "" {
				it.Source = sourceTitle
			}
			articles = append(articles, it)
		}
	}

	// Homepage scraping only when every feed came up empty.
	if len(articles) == 0 && site.URL != "" {
		for _, it := range sa.scrapeHomepage(ctx, site.URL) {
			if it.Link == "" {
				continue
			}
			norm := types.NormalizeLink(it.Link)
			if _, dup := seen[norm]; dup {
				continue
			}
			seen[norm] = struct{}{}
			it.Site = name
			articles = append(articles, it)
		}
	}

	enrich.Articles(articles)

	sa.logger.Info("site fetched",
		"site", name,
		"feeds", len(feedURLs),
		"articles", len(articles),
	)
	return name, articles, nil
}

// fetchFeed parses one feed over HTTP, falling back to a browser render for
// flagged domains that served nothing.
func (sa *SiteAggregator) fetchFeed(ctx context.Context, feedURL string) ([]types.Article, string) {
	sa.metrics.FeedsParsed.Add(1)
	items, sourceTitle := sa.feeds.Parse(ctx, feedURL)
	if len(items) > 0 {
		return items, sourceTitle
	}

	if sa.renderer.NeedsBrowser(feedURL) && sa.renderer.Available() {
		sa.logger.Info("trying browser fetch for feed", "feed", feedURL)
		sa.metrics.BrowserRenders.Add(1)
		content, err := sa.renderer.Render(ctx, feedURL, "")
		if err != nil {
			sa.metrics.BrowserFailures.Add(1)
			sa.logger.Warn("browser feed fetch failed", "feed", feedURL, "error", err)
			return nil, ""
		}
		return sa.feeds.ParseContent(content, feedURL)
	}
	return items, sourceTitle
}

// scrapeHomepage scrapes over HTTP, falling back to a browser render for
// flagged domains that served nothing.
func (sa *SiteAggregator) scrapeHomepage(ctx context.Context, homepageURL string) []types.Article {
	sa.metrics.HomepagesScraped.Add(1)
	scraped := sa.scraper.Scrape(ctx, homepageURL)
	if len(scraped) > 0 {
		return scraped
	}

	if sa.renderer.NeedsBrowser(homepageURL) && sa.renderer.Available() {
		sa.logger.Info("trying browser scrape for homepage", "url", homepageURL)
		sa.metrics.BrowserRenders.Add(1)
		content, err := sa.renderer.Render(ctx, homepageURL, browser.HomepageWaitSelector)
		if err != nil {
			sa.metrics.BrowserFailures.Add(1)
			sa.logger.Warn("browser scrape failed", "url", homepageURL, "error", err)
			return nil
		}
		return sa.scraper.ScrapeContent(content, homepageURL)
	}
	return scraped
}
