package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for the aggregator.
type Metrics struct {
	// Refresh metrics
	RefreshesTotal  atomic.Int64
	RefreshesFailed atomic.Int64

	// Site metrics
	SitesFetched atomic.Int64
	SitesEmpty   atomic.Int64
	SitesPanics  atomic.Int64

	// Strategy metrics
	FeedsParsed       atomic.Int64
	FeedsDiscovered   atomic.Int64
	HomepagesScraped  atomic.Int64
	BrowserRenders    atomic.Int64
	BrowserFailures   atomic.Int64
	ArticlesCollected atomic.Int64

	// Fleet metrics
	ActiveSites atomic.Int32

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"medfeed_refreshes_total", "Total refresh cycles run", m.RefreshesTotal.Load()},
		{"medfeed_refreshes_failed_total", "Total refresh cycles that failed", m.RefreshesFailed.Load()},
		{"medfeed_sites_fetched_total", "Total per-site fetches", m.SitesFetched.Load()},
		{"medfeed_sites_empty_total", "Total per-site fetches yielding no articles", m.SitesEmpty.Load()},
		{"medfeed_sites_panics_total", "Total per-site fetches recovered from panic", m.SitesPanics.Load()},
		{"medfeed_feeds_parsed_total", "Total feeds parsed", m.FeedsParsed.Load()},
		{"medfeed_feeds_discovered_total", "Total feeds found by discovery", m.FeedsDiscovered.Load()},
		{"medfeed_homepages_scraped_total", "Total homepages scraped", m.HomepagesScraped.Load()},
		{"medfeed_browser_renders_total", "Total browser renders", m.BrowserRenders.Load()},
		{"medfeed_browser_failures_total", "Total failed browser renders", m.BrowserFailures.Load()},
		{"medfeed_articles_collected_total", "Total articles collected", m.ArticlesCollected.Load()},
		{"medfeed_active_sites", "Sites currently being fetched", int64(m.ActiveSites.Load())},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"refreshes_total":    m.RefreshesTotal.Load(),
		"refreshes_failed":   m.RefreshesFailed.Load(),
		"sites_fetched":      m.SitesFetched.Load(),
		"sites_empty":        m.SitesEmpty.Load(),
		"sites_panics":       m.SitesPanics.Load(),
		"feeds_parsed":       m.FeedsParsed.Load(),
		"feeds_discovered":   m.FeedsDiscovered.Load(),
		"homepages_scraped":  m.HomepagesScraped.Load(),
		"browser_renders":    m.BrowserRenders.Load(),
		"browser_failures":   m.BrowserFailures.Load(),
		"articles_collected": m.ArticlesCollected.Load(),
		"active_sites":       int64(m.ActiveSites.Load()),
	}
}
