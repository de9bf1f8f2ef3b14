package aggregator

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/observability"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Fleet fans a refresh out over every configured site with bounded
// concurrency and request pacing.
type Fleet struct {
	agg     *SiteAggregator
	slots   *semaphore.Weighted
	limiter *rate.Limiter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFleet creates a fleet runner. Concurrency comes from fleet.concurrency;
// pacing_delay inserts a pause after each site completes so a refresh does
// not stampede.
func NewFleet(agg *SiteAggregator, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Fleet {
	concurrency := cfg.Fleet.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Fleet.PacingDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Fleet.PacingDelay), 1)
	}

	return &Fleet{
		agg:     agg,
		slots:   semaphore.NewWeighted(int64(concurrency)),
		limiter: limiter,
		metrics: metrics,
		logger:  logger.With("component", "fleet"),
	}
}

// FetchAll runs every site and returns articles grouped by site name. Sites
// that yield nothing are left out of the map. A panicking site is contained
// and counts as empty; one bad site never takes down a refresh.
func (f *Fleet) FetchAll(ctx context.Context, sites []types.SiteDefinition) map[string][]types.Article {
	f.logger.Info("refresh started", "sites", len(sites))

	type siteResult struct {
		name     string
		articles []types.Article
	}

	results := make(chan siteResult, len(sites))
	var wg sync.WaitGroup

	for _, site := range sites {
		if err := f.slots.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(site types.SiteDefinition) {
			defer wg.Done()
			defer f.slots.Release(1)
			name, articles := f.fetchSite(ctx, site)
			results <- siteResult{name: name, articles: articles}
			// Pause after completion, while still holding the slot, so
			// successive sites are spaced out rather than delayed up front.
			_ = f.limiter.Wait(ctx)
		}(site)
	}

	wg.Wait()
	close(results)

	out := make(map[string][]types.Article)
	for r := range results {
		if len(r.articles) == 0 {
			f.metrics.SitesEmpty.Add(1)
			continue
		}
		// Merge rather than clobber when two definitions share a name.
		out[r.name] = append(out[r.name], r.articles...)
		f.metrics.ArticlesCollected.Add(int64(len(r.articles)))
	}

	f.logger.Info("refresh finished", "sites_with_articles", len(out))
	return out
}

// fetchSite runs one site with panic containment.
func (f *Fleet) fetchSite(ctx context.Context, site types.SiteDefinition) (name string, articles []types.Article) {
	name = site.DisplayName()

	defer func() {
		if r := recover(); r != nil {
			f.metrics.SitesPanics.Add(1)
			f.logger.Error("site fetch panicked", "site", name, "panic", r)
			articles = nil
		}
	}()

	f.metrics.ActiveSites.Add(1)
	defer f.metrics.ActiveSites.Add(-1)
	f.metrics.SitesFetched.Add(1)

	fetchedName, fetched, err := f.agg.Fetch(ctx, site)
	if err != nil {
		f.logger.Warn("site not fetchable", "site", fetchedName, "error", err)
		return fetchedName, nil
	}
	return fetchedName, fetched
}
