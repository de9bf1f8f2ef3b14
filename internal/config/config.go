package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the aggregator.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"      yaml:"http"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"    yaml:"scrape"`
	Fleet     FleetConfig     `mapstructure:"fleet"     yaml:"fleet"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`

	// SitesFile points at the YAML file holding the site definitions.
	SitesFile string `mapstructure:"sites_file" yaml:"sites_file"`
}

// HTTPConfig controls the transport layer.
type HTTPConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"   yaml:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"   yaml:"retry_delay"`
	MaxBodySize int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	UserAgents  []string      `mapstructure:"user_agents"   yaml:"user_agents"`
}

// DiscoveryConfig controls feed discovery against a homepage.
type DiscoveryConfig struct {
	MaxPathProbes int `mapstructure:"max_path_probes" yaml:"max_path_probes"`
}

// ScrapeConfig controls heuristic homepage scraping.
type ScrapeConfig struct {
	MaxArticlesPerSite int `mapstructure:"max_articles_per_site" yaml:"max_articles_per_site"`
}

// FleetConfig controls the scheduler running all sites.
type FleetConfig struct {
	Concurrency int           `mapstructure:"concurrency"  yaml:"concurrency"`
	PacingDelay time.Duration `mapstructure:"pacing_delay" yaml:"pacing_delay"`
}

// BrowserConfig controls the headless-browser fallback.
type BrowserConfig struct {
	Enabled         bool          `mapstructure:"enabled"          yaml:"enabled"`
	NavTimeout      time.Duration `mapstructure:"nav_timeout"      yaml:"nav_timeout"`
	SelectorTimeout time.Duration `mapstructure:"selector_timeout" yaml:"selector_timeout"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"     yaml:"settle_delay"`
	MaxSessions     int           `mapstructure:"max_sessions"     yaml:"max_sessions"`
	// RequiredDomains lists domain suffixes that only render their content
	// under a real browser (JS rendering or bot detection on plain HTTP).
	RequiredDomains []string `mapstructure:"required_domains" yaml:"required_domains"`
}

// APIConfig controls the read API server.
type APIConfig struct {
	Listen          string        `mapstructure:"listen"           yaml:"listen"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	MaxLimit        int           `mapstructure:"max_limit"        yaml:"max_limit"`
}

// StorageConfig controls optional snapshot persistence after each refresh.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // "", "json", "csv", "mongodb"
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	MongoDB    string `mapstructure:"mongo_db"    yaml:"mongo_db"`
	MongoColl  string `mapstructure:"mongo_coll"  yaml:"mongo_coll"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultBrowserDomains are the domain suffixes known to need a real
// browser. Overridable via browser.required_domains.
var DefaultBrowserDomains = []string{
	"medscape.com",
	"auntminnie.com",
	"jvir.org",
	"jvascsurg.org",
	"gastrojournal.org",
	"anesthesiologynews.com",
	"painmedicinenews.com",
	"gastroendonews.com",
	"clinicaloncology.com",
	"intuitive.com",
	"journals.lww.com",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:     20 * time.Second,
			MaxRetries:  2,
			RetryDelay:  1 * time.Second,
			MaxBodySize: 10 * 1024 * 1024, // 10MB
			UserAgents: []string{
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Discovery: DiscoveryConfig{
			MaxPathProbes: 8,
		},
		Scrape: ScrapeConfig{
			MaxArticlesPerSite: 50,
		},
		Fleet: FleetConfig{
			Concurrency: 10,
			PacingDelay: 100 * time.Millisecond,
		},
		Browser: BrowserConfig{
			Enabled:         true,
			NavTimeout:      30 * time.Second,
			SelectorTimeout: 5 * time.Second,
			SettleDelay:     1 * time.Second,
			MaxSessions:     2,
			RequiredDomains: DefaultBrowserDomains,
		},
		API: APIConfig{
			Listen:          ":8080",
			RefreshInterval: 15 * time.Minute,
			MaxLimit:        500,
		},
		Storage: StorageConfig{
			Type:       "",
			OutputPath: "./output",
			MongoDB:    "medfeed",
			MongoColl:  "articles",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		SitesFile: "./configs/sites.yaml",
	}
}
