// Package browser renders pages through headless Chromium for sites whose
// content only appears under a real browser.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"golang.org/x/sync/semaphore"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/security"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// HomepageWaitSelector is passed when rendering homepages so navigation
// waits for the first listing element to appear.
const HomepageWaitSelector = "article, .article, .news-item, .story, .press-release, .card"

// Renderer drives headless Chromium sessions. Sessions are isolated: each
// render launches its own browser and tears it down, trading speed for
// freedom from cross-site state. MaxSessions bounds how many run at once.
type Renderer struct {
	cfg        *config.BrowserConfig
	logger     *slog.Logger
	sessions   *semaphore.Weighted
	userAgents []string
}

// NewRenderer creates a renderer. It does not launch anything; Chromium is
// located lazily per render.
func NewRenderer(cfg *config.Config, logger *slog.Logger) *Renderer {
	max := cfg.Browser.MaxSessions
	if max <= 0 {
		max = 1
	}
	return &Renderer{
		cfg:        &cfg.Browser,
		logger:     logger.With("component", "browser"),
		sessions:   semaphore.NewWeighted(int64(max)),
		userAgents: cfg.HTTP.UserAgents,
	}
}

// Available reports whether browser rendering can be attempted at all:
// enabled in config and a Chromium binary present on the host.
func (r *Renderer) Available() bool {
	if !r.cfg.Enabled {
		return false
	}
	_, has := launcher.LookPath()
	return has
}

// NeedsBrowser reports whether a URL belongs to a site known to require a
// real browser. A flagged domain matches exactly or as a dot-separated
// suffix with the www prefix stripped, so subdomains inherit the flag but
// look-alike hosts do not.
func (r *Renderer) NeedsBrowser(rawURL string) bool {
	host := strings.ToLower(types.Hostname(rawURL))
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}
	for _, domain := range r.cfg.RequiredDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Render navigates to rawURL in a fresh browser and returns the rendered
// HTML. waitSelector, when non-empty, is awaited after navigation; a
// selector that never appears is not fatal. Images and fonts are blocked
// for speed.
func (r *Renderer) Render(ctx context.Context, rawURL, waitSelector string) (string, error) {
	if !security.IsSafeURL(rawURL) {
		return "", types.ErrInvalidURL
	}
	if err := r.sessions.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sessions.Release(1)

	launchURL, err := r.launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return "", fmt.Errorf("stealth page: %w", err)
	}
	defer page.Close()

	if len(r.userAgents) > 0 {
		ua := r.userAgents[rand.Intn(len(r.userAgents))]
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			r.logger.Warn("failed to set user agent", "error", err)
		}
	}

	router := page.HijackRequests()
	blockResources(router)
	go router.Run()
	defer router.Stop()

	if err := page.Timeout(r.cfg.NavTimeout).Navigate(rawURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := page.Timeout(r.cfg.NavTimeout).WaitLoad(); err != nil {
		r.logger.Debug("page load wait expired, continuing", "url", rawURL, "error", err)
	}

	if waitSelector != "" {
		if _, err := page.Timeout(r.cfg.SelectorTimeout).Element(waitSelector); err != nil {
			r.logger.Debug("wait selector never appeared", "url", rawURL, "selector", waitSelector)
		}
	}

	// Give late JS a moment to render.
	time.Sleep(r.cfg.SettleDelay)

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}

	r.logger.Debug("render complete", "url", rawURL, "size", len(html))
	return html, nil
}

// launch starts a Chromium instance with the usual headless flags.
func (r *Renderer) launch() (string, error) {
	return launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1920,1080").
		Launch()
}

// blockResources aborts image and font requests; rendered pages only need
// their DOM.
func blockResources(router *rod.HijackRouter) {
	block := func(ctx *rod.Hijack) {
		switch ctx.Request.Type() {
		case proto.NetworkResourceTypeImage, proto.NetworkResourceTypeFont, proto.NetworkResourceTypeMedia:
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			ctx.ContinueRequest(&proto.FetchContinueRequest{})
		}
	}
	_ = router.Add("*", "", block)
}
