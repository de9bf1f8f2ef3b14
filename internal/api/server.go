// Package api exposes the cached articles over a small read-only HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/aggregator"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/scraper"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/security"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/storage"
)

const defaultArticleLimit = 50

// BodyScraper fetches the full text of one article page on demand.
type BodyScraper interface {
	Scrape(ctx context.Context, articleURL string) *scraper.ArticleBody
}

var _ BodyScraper = (*scraper.ArticleScraper)(nil)

// Server serves the aggregated articles.
type Server struct {
	mux      *http.ServeMux
	cfg      *config.APIConfig
	cache    *aggregator.Cache
	bodies   BodyScraper
	logger   *slog.Logger
	srv      *http.Server
	maxLimit int
}

// NewServer creates the read API over a cache.
func NewServer(cfg *config.Config, cache *aggregator.Cache, bodies BodyScraper, logger *slog.Logger) *Server {
	maxLimit := cfg.API.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 500
	}
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      &cfg.API,
		cache:    cache,
		bodies:   bodies,
		logger:   logger.With("component", "api_server"),
		maxLimit: maxLimit,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start begins serving. It blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.logger.Info("API server starting", "addr", s.cfg.Listen)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /sites", s.handleSites)
	s.mux.HandleFunc("GET /articles", s.handleArticles)
	s.mux.HandleFunc("GET /articles/body", s.handleArticleBody)
	s.mux.HandleFunc("GET /export/json", s.handleExportJSON)
	s.mux.HandleFunc("GET /export/csv", s.handleExportCSV)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	last := ""
	if t := s.cache.LastRefresh(); !t.IsZero() {
		last = t.Format(time.RFC3339)
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      config.Version,
		"last_refresh": last,
		"articles":     len(s.cache.Articles()),
	})
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	type siteInfo struct {
		Name     string `json:"name"`
		Articles int    `json:"articles"`
	}
	counts := s.cache.Sites()
	sites := make([]siteInfo, 0, len(counts))
	for name, n := range counts {
		sites = append(sites, siteInfo{Name: name, Articles: n})
	}
	s.jsonResponse(w, http.StatusOK, sites)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	site := r.URL.Query().Get("site")
	q := r.URL.Query().Get("q")

	limit := defaultArticleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	s.jsonResponse(w, http.StatusOK, Filter(s.cache.Articles(), site, q, limit))
}

func (s *Server) handleArticleBody(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "url parameter required"})
		return
	}
	if !security.IsSafeURL(rawURL) {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "url not allowed"})
		return
	}
	if s.bodies == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "body scraping not available"})
		return
	}

	body := s.bodies.Scrape(r.Context(), rawURL)
	if body == nil {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "no article content found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, body)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	articles := Filter(s.cache.Articles(), r.URL.Query().Get("site"), r.URL.Query().Get("q"), s.maxLimit)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", exportFilename("json"))
	if err := storage.WriteJSON(w, articles); err != nil {
		s.logger.Error("JSON export failed", "error", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	articles := Filter(s.cache.Articles(), r.URL.Query().Get("site"), r.URL.Query().Get("q"), s.maxLimit)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", exportFilename("csv"))
	if err := storage.WriteCSV(w, articles); err != nil {
		s.logger.Error("CSV export failed", "error", err)
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf(`attachment; filename="articles-%s.%s"`, time.Now().Format("20060102"), ext)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
