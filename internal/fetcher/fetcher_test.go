package fetcher

import (
	"compress/gzip"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.MaxRetries = 2
	cfg.HTTP.RetryDelay = 1 * time.Millisecond
	return cfg
}

// newTestFetcher permits loopback URLs so httptest servers work.
func newTestFetcher(t *testing.T, cfg *config.Config) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	f.safeURL = func(string) bool { return true }
	t.Cleanup(func() { f.Close() })
	return f
}

func TestBackoffFor(t *testing.T) {
	base := 100 * time.Millisecond
	tests := []struct {
		name    string
		kind    types.FailureKind
		attempt int
		delay   time.Duration
		retry   bool
	}{
		{"blocked first", types.FailureBlocked, 1, 100 * time.Millisecond, true},
		{"blocked third", types.FailureBlocked, 3, 300 * time.Millisecond, true},
		{"rate limited first", types.FailureRateLimited, 1, 200 * time.Millisecond, true},
		{"rate limited second", types.FailureRateLimited, 2, 400 * time.Millisecond, true},
		{"server error", types.FailureServerError, 2, 100 * time.Millisecond, true},
		{"timeout", types.FailureTimeout, 1, 100 * time.Millisecond, true},
		{"network", types.FailureNetwork, 1, 100 * time.Millisecond, true},
		{"tls never retries", types.FailureTLS, 1, 0, false},
		{"unexpected status never retries", types.FailureUnexpectedStatus, 1, 0, false},
		{"rejected never retries", types.FailureRejected, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := BackoffFor(tt.kind, tt.attempt, base)
			if retry != tt.retry {
				t.Errorf("retry = %v, want %v", retry, tt.retry)
			}
			if delay != tt.delay {
				t.Errorf("delay = %v, want %v", delay, tt.delay)
			}
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	out := f.Fetch(context.Background(), srv.URL, PurposePage)
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Body != "<html>ok</html>" {
		t.Errorf("unexpected body: %q", out.Body)
	}
	if out.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", out.Attempts)
	}
}

func TestFetchRejectsUnsafeURL(t *testing.T) {
	f, err := NewHTTPFetcher(testConfig(), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, u := range []string{
		"http://localhost/feed",
		"http://127.0.0.1:8080/",
		"ftp://example.com/file",
		"http://192.168.1.1/admin",
	} {
		out := f.Fetch(context.Background(), u, PurposePage)
		if out.OK() {
			t.Errorf("%s: expected rejection", u)
			continue
		}
		if out.Err.Kind != types.FailureRejected {
			t.Errorf("%s: kind = %v, want rejected", u, out.Err.Kind)
		}
	}
}

func TestFetchRetriesServerError(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	out := f.Fetch(context.Background(), srv.URL, PurposePage)
	if out.OK() {
		t.Fatal("expected failure")
	}
	// MaxRetries=2 means a budget of 3 attempts.
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if out.Err.Kind != types.FailureServerError {
		t.Errorf("kind = %v, want server error", out.Err.Kind)
	}
}

func TestFetchNegativeRetriesClampedToOneAttempt(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.MaxRetries = -5
	f := newTestFetcher(t, cfg)
	out := f.Fetch(context.Background(), srv.URL, PurposePage)
	if out.OK() {
		t.Fatal("expected failure")
	}
	if out.Err == nil || out.Err.Kind != types.FailureServerError {
		t.Fatalf("err = %v, want server error", out.Err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestFetchRecoversMidBudget(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	out := f.Fetch(context.Background(), srv.URL, PurposePage)
	if !out.OK() {
		t.Fatalf("expected recovery, got %v", out.Err)
	}
	if out.Body != "finally" {
		t.Errorf("unexpected body: %q", out.Body)
	}
	if out.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", out.Attempts)
	}
}

func TestFetchNoRetryOnNotFound(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	out := f.Fetch(context.Background(), srv.URL, PurposePage)
	if out.OK() {
		t.Fatal("expected failure")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 attempt for 404, got %d", got)
	}
	if out.Err.Kind != types.FailureUnexpectedStatus {
		t.Errorf("kind = %v, want unexpected status", out.Err.Kind)
	}
}

func TestFetchRotatesUserAgents(t *testing.T) {
	seen := make(chan string, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.UserAgents = []string{"agent-a", "agent-b", "agent-c"}
	f := newTestFetcher(t, cfg)
	f.Fetch(context.Background(), srv.URL, PurposePage)
	close(seen)

	agents := map[string]bool{}
	for ua := range seen {
		agents[ua] = true
	}
	if len(agents) < 2 {
		t.Errorf("expected rotation across attempts, saw %v", agents)
	}
}

func TestFetchAcceptHeaderPerPurpose(t *testing.T) {
	var accept atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept.Store(r.Header.Get("Accept"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())

	f.Fetch(context.Background(), srv.URL, PurposeFeed)
	if got := accept.Load().(string); got != acceptFeed {
		t.Errorf("feed Accept = %q", got)
	}

	f.Fetch(context.Background(), srv.URL, PurposePage)
	if got := accept.Load().(string); got != acceptPage {
		t.Errorf("page Accept = %q", got)
	}
}

func TestFetchDecompressesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<html>compressed</html>"))
		gz.Close()
	}))
	defer srv.Close()

	f := newTestFetcher(t, testConfig())
	out := f.Fetch(context.Background(), srv.URL, PurposePage)
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Body != "<html>compressed</html>" {
		t.Errorf("unexpected body: %q", out.Body)
	}
}
