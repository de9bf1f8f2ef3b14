package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/aggregator"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/scraper"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

type stubBodies struct {
	byURL map[string]*scraper.ArticleBody
}

func (s *stubBodies) Scrape(_ context.Context, articleURL string) *scraper.ArticleBody {
	return s.byURL[articleURL]
}

func seededCache() *aggregator.Cache {
	c := aggregator.NewCache()
	c.Apply(map[string][]types.Article{
		"Cardio Site": {
			{Title: "Stent trial results", Link: "https://cardio.example/1", Summary: "trial data", Site: "Cardio Site", Source: "Cardiology Daily"},
			{Title: "Valve update", Link: "https://cardio.example/2", Site: "Cardio Site"},
		},
		"Radiology Site": {
			{Title: "AI reads scans", Link: "https://rad.example/1", Site: "Radiology Site"},
		},
	})
	return c
}

func newTestServer(bodies BodyScraper) *Server {
	return NewServer(config.DefaultConfig(), seededCache(), bodies, testLogger)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(nil), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["articles"].(float64) != 3 {
		t.Errorf("articles = %v", body["articles"])
	}
	if body["last_refresh"] == "" {
		t.Error("expected last_refresh to be set")
	}
}

func TestSites(t *testing.T) {
	rec := get(t, newTestServer(nil), "/sites")
	var sites []struct {
		Name     string `json:"name"`
		Articles int    `json:"articles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sites); err != nil {
		t.Fatal(err)
	}
	if len(sites) != 2 {
		t.Fatalf("sites = %+v", sites)
	}
}

func TestArticlesFilterBySite(t *testing.T) {
	rec := get(t, newTestServer(nil), "/articles?site=Radiology+Site")
	var articles []types.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 || articles[0].Title != "AI reads scans" {
		t.Errorf("articles = %+v", articles)
	}
}

func TestArticlesQuery(t *testing.T) {
	rec := get(t, newTestServer(nil), "/articles?q=stent")
	var articles []types.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 || articles[0].Title != "Stent trial results" {
		t.Errorf("articles = %+v", articles)
	}
}

func TestArticlesLimit(t *testing.T) {
	rec := get(t, newTestServer(nil), "/articles?limit=2")
	var articles []types.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Errorf("expected 2 articles, got %d", len(articles))
	}
}

func TestArticlesBadLimit(t *testing.T) {
	for _, path := range []string{"/articles?limit=0", "/articles?limit=-3", "/articles?limit=abc"} {
		if rec := get(t, newTestServer(nil), path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestArticleBody(t *testing.T) {
	bodies := &stubBodies{byURL: map[string]*scraper.ArticleBody{
		"https://cardio.example/1": {
			URL:   "https://cardio.example/1",
			Title: "Stent trial results",
			Text:  "Full text here.",
		},
	}}
	s := newTestServer(bodies)

	rec := get(t, s, "/articles/body?url=https%3A%2F%2Fcardio.example%2F1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body scraper.ArticleBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Text != "Full text here." {
		t.Errorf("text = %q", body.Text)
	}

	if rec := get(t, s, "/articles/body?url=https%3A%2F%2Funknown.example%2Fx"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown page status = %d", rec.Code)
	}
	if rec := get(t, s, "/articles/body"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url status = %d", rec.Code)
	}
	if rec := get(t, s, "/articles/body?url=http%3A%2F%2F127.0.0.1%2Fsecret"); rec.Code != http.StatusBadRequest {
		t.Errorf("unsafe url status = %d", rec.Code)
	}
}

func TestExportJSON(t *testing.T) {
	rec := get(t, newTestServer(nil), "/export/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("content disposition = %q", cd)
	}
	var articles []types.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &articles); err != nil {
		t.Fatal(err)
	}
	if len(articles) != 3 {
		t.Errorf("exported %d articles", len(articles))
	}
}

func TestExportCSV(t *testing.T) {
	rec := get(t, newTestServer(nil), "/export/csv?site=Cardio+Site")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	// Header plus two rows.
	if len(lines) != 3 {
		t.Errorf("csv lines = %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "title,link,summary") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestFilter(t *testing.T) {
	articles := []types.Article{
		{Title: "Alpha study", Summary: "about devices", Source: "Journal A", Site: "A"},
		{Title: "Beta trial", Summary: "drug results", Source: "Journal B", Site: "B"},
		{Title: "Gamma recap", Summary: "beta blockers revisited", Source: "Journal A", Site: "A"},
	}

	if got := Filter(articles, "A", "", 0); len(got) != 2 {
		t.Errorf("site filter: %d", len(got))
	}
	if got := Filter(articles, "", "beta", 0); len(got) != 2 {
		t.Errorf("query filter should match title and summary: %d", len(got))
	}
	if got := Filter(articles, "A", "journal a", 0); len(got) != 2 {
		t.Errorf("source should be searchable: %d", len(got))
	}
	if got := Filter(articles, "", "", 2); len(got) != 2 {
		t.Errorf("limit: %d", len(got))
	}
	if got := Filter(articles, "", "nomatch", 0); len(got) != 0 {
		t.Errorf("no-match: %d", len(got))
	}
}
