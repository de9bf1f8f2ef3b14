package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/observability"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/storage"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Refresher re-runs the fleet on an interval and publishes each result to
// the cache, with optional persistence.
type Refresher struct {
	fleet    *Fleet
	cache    *Cache
	store    storage.Store // nil when persistence is off
	sites    []types.SiteDefinition
	interval time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewRefresher wires a refresher. store may be nil.
func NewRefresher(fleet *Fleet, cache *Cache, store storage.Store, sites []types.SiteDefinition, interval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Refresher {
	return &Refresher{
		fleet:    fleet,
		cache:    cache,
		store:    store,
		sites:    sites,
		interval: interval,
		metrics:  metrics,
		logger:   logger.With("component", "refresher"),
	}
}

// RefreshNow runs one refresh cycle synchronously.
func (r *Refresher) RefreshNow(ctx context.Context) {
	r.metrics.RefreshesTotal.Add(1)
	start := time.Now()

	results := r.fleet.FetchAll(ctx, r.sites)
	r.cache.Apply(results)

	if r.store != nil {
		if err := r.store.SaveSnapshot(ctx, r.cache.Articles()); err != nil {
			r.metrics.RefreshesFailed.Add(1)
			r.logger.Error("snapshot persistence failed", "store", r.store.Name(), "error", err)
		}
	}

	r.logger.Info("refresh cycle complete",
		"sites", len(results),
		"articles", len(r.cache.Articles()),
		"duration", time.Since(start),
	)
}

// Run refreshes immediately, then on every interval tick until ctx ends.
func (r *Refresher) Run(ctx context.Context) {
	r.RefreshNow(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping")
			return
		case <-ticker.C:
			r.RefreshNow(ctx)
		}
	}
}
