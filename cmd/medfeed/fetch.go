package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/aggregator"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/browser"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/discovery"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/feed"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/observability"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/scraper"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/storage"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

var (
	fetchOutput string
	fetchFormat string
	fetchSite   string
)

// fetchCmd creates the "fetch" subcommand.
func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all sites once and write the articles out",
		Long: `Run a single collection pass over the configured sites and write
the results as JSON or CSV to stdout or a file. No server is started.`,
		RunE: runFetch,
	}

	cmd.Flags().StringVarP(&fetchOutput, "output", "o", "-", "output file path, or - for stdout")
	cmd.Flags().StringVarP(&fetchFormat, "format", "f", "json", "output format: json, csv")
	cmd.Flags().StringVar(&fetchSite, "site", "", "fetch only the named site")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "concurrent site fetches")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable the headless-browser fallback")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(nil)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	logger = setupLogger(&cfg.Logging)

	if fetchFormat != "json" && fetchFormat != "csv" {
		return fmt.Errorf("unknown format %q", fetchFormat)
	}

	sites, skipped, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}
	for _, idx := range skipped {
		logger.Warn("site entry skipped, no URL or feeds", "index", idx)
	}
	if fetchSite != "" {
		var matched []types.SiteDefinition
		for _, site := range sites {
			if site.DisplayName() == fetchSite {
				matched = append(matched, site)
			}
		}
		if len(matched) == 0 {
			return fmt.Errorf("no site named %q in %s", fetchSite, cfg.SitesFile)
		}
		sites = matched
	}
	if len(sites) == 0 {
		return fmt.Errorf("no usable sites in %s", cfg.SitesFile)
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	metrics := observability.NewMetrics(logger)
	agg := aggregator.NewSiteAggregator(
		discovery.NewDiscoverer(httpFetcher, cfg, logger),
		feed.NewParser(httpFetcher, logger),
		scraper.NewHomepageScraper(httpFetcher, cfg, logger),
		browser.NewRenderer(cfg, logger),
		metrics,
		logger,
	)
	fleet := aggregator.NewFleet(agg, cfg, metrics, logger)

	start := time.Now()
	results := fleet.FetchAll(cmd.Context(), sites)

	var articles []types.Article
	for _, siteArticles := range results {
		articles = append(articles, siteArticles...)
	}

	out := os.Stdout
	if fetchOutput != "-" && fetchOutput != "" {
		f, err := os.Create(fetchOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if fetchFormat == "csv" {
		err = storage.WriteCSV(out, articles)
	} else {
		err = storage.WriteJSON(out, articles)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n✅ Fetched %d article(s) from %d of %d site(s) in %s\n",
		len(articles), len(results), len(sites), time.Since(start).Round(time.Millisecond))
	return nil
}
