package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/aggregator"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/api"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/browser"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/discovery"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/feed"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/observability"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/scraper"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	sitesFile   string
	listen      string
	refreshStr  string
	concurrency int
	noBrowser   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medfeed",
		Short: "MedFeed — medical news aggregation service",
		Long: `MedFeed collects articles from medical news sites and journals.

For each configured site it tries, in order: explicit RSS/Atom feeds,
feed auto-discovery on the homepage, heuristic homepage scraping, and a
headless-browser fallback for sites that only render under a real
browser. Results are deduplicated, tagged with company and product
mentions, and served over a read-only HTTP API.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&sitesFile, "sites", "s", "", "sites YAML file (overrides config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(sitesCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregation service with periodic refresh and HTTP API",
		Long: `Fetch all configured sites immediately, then keep refreshing on an
interval while serving the cached articles over HTTP.`,
		RunE: runServe,
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "API listen address (e.g. :8080)")
	cmd.Flags().StringVar(&refreshStr, "refresh", "", "refresh interval (e.g. 15m)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "concurrent site fetches")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable the headless-browser fallback")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(nil)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	logger = setupLogger(&cfg.Logging)

	sites, skipped, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}
	for _, idx := range skipped {
		logger.Warn("site entry skipped, no URL or feeds", "index", idx)
	}
	if len(sites) == 0 {
		return fmt.Errorf("no usable sites in %s", cfg.SitesFile)
	}

	logger.Info("starting",
		"sites", len(sites),
		"refresh", cfg.API.RefreshInterval,
		"concurrency", cfg.Fleet.Concurrency,
		"browser", cfg.Browser.Enabled,
	)

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	metrics := observability.NewMetrics(logger)
	renderer := browser.NewRenderer(cfg, logger)
	if cfg.Browser.Enabled && !renderer.Available() {
		logger.Warn("browser fallback enabled but no browser binary found")
	}

	agg := aggregator.NewSiteAggregator(
		discovery.NewDiscoverer(httpFetcher, cfg, logger),
		feed.NewParser(httpFetcher, logger),
		scraper.NewHomepageScraper(httpFetcher, cfg, logger),
		renderer,
		metrics,
		logger,
	)
	fleet := aggregator.NewFleet(agg, cfg, metrics, logger)
	cache := aggregator.NewCache()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	if store != nil {
		defer store.Close(context.Background())
	}

	refresher := aggregator.NewRefresher(fleet, cache, store, sites, cfg.API.RefreshInterval, metrics, logger)
	go refresher.Run(ctx)

	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	bodies := scraper.NewArticleScraper(httpFetcher, logger)
	server := api.NewServer(cfg, cache, bodies, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	return server.Start()
}

// sitesCmd creates the "sites" subcommand for inspecting the site list.
func sitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the configured sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)

			sites, skipped, err := config.LoadSites(cfg.SitesFile)
			if err != nil {
				return err
			}

			for _, site := range sites {
				feeds := "auto-discover"
				if len(site.Feeds) > 0 {
					feeds = fmt.Sprintf("%d feed(s)", len(site.Feeds))
				}
				fmt.Printf("  %-40s %-50s %s\n", site.DisplayName(), site.URL, feeds)
			}
			fmt.Printf("\n%d site(s) configured", len(sites))
			if len(skipped) > 0 {
				fmt.Printf(", %d entry(ies) skipped", len(skipped))
			}
			fmt.Println()
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("MedFeed %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)

			fmt.Printf("HTTP:\n")
			fmt.Printf("  Timeout:           %s\n", cfg.HTTP.Timeout)
			fmt.Printf("  Max Retries:       %d\n", cfg.HTTP.MaxRetries)
			fmt.Printf("  Retry Delay:       %s\n", cfg.HTTP.RetryDelay)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.HTTP.MaxBodySize)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.HTTP.UserAgents))
			fmt.Printf("\nDiscovery:\n")
			fmt.Printf("  Max Path Probes:   %d\n", cfg.Discovery.MaxPathProbes)
			fmt.Printf("\nScrape:\n")
			fmt.Printf("  Max Articles/Site: %d\n", cfg.Scrape.MaxArticlesPerSite)
			fmt.Printf("\nFleet:\n")
			fmt.Printf("  Concurrency:       %d\n", cfg.Fleet.Concurrency)
			fmt.Printf("  Pacing Delay:      %s\n", cfg.Fleet.PacingDelay)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Browser.Enabled)
			fmt.Printf("  Nav Timeout:       %s\n", cfg.Browser.NavTimeout)
			fmt.Printf("  Max Sessions:      %d\n", cfg.Browser.MaxSessions)
			fmt.Printf("  Required Domains:  %d configured\n", len(cfg.Browser.RequiredDomains))
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Listen:            %s\n", cfg.API.Listen)
			fmt.Printf("  Refresh Interval:  %s\n", cfg.API.RefreshInterval)
			fmt.Printf("  Max Limit:         %d\n", cfg.API.MaxLimit)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", storageTypeLabel(cfg.Storage.Type))
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			fmt.Printf("\nSites File:          %s\n", cfg.SitesFile)
			return nil
		},
	}
}

func storageTypeLabel(t string) string {
	if t == "" {
		return "none (in-memory only)"
	}
	return t
}

// setupLogger creates a structured logger. Called once with nil before the
// config is loaded, then again with the loaded logging section.
func setupLogger(lc *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	format := "text"
	if lc != nil {
		switch strings.ToLower(lc.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		format = strings.ToLower(lc.Format)
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if sitesFile != "" {
		cfg.SitesFile = sitesFile
	}
	if listen != "" {
		cfg.API.Listen = listen
	}
	if refreshStr != "" {
		if d, err := time.ParseDuration(refreshStr); err == nil {
			cfg.API.RefreshInterval = d
		}
	}
	if concurrency > 0 {
		cfg.Fleet.Concurrency = concurrency
	}
	if noBrowser {
		cfg.Browser.Enabled = false
	}
}
