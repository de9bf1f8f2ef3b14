package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/security"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

const (
	acceptPage = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptFeed = "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.7"
)

// HTTPFetcher implements Fetcher using net/http. Every attempt presents a
// different User-Agent; failures are classified and retried per BackoffFor
// within a budget of MaxRetries+1 attempts.
type HTTPFetcher struct {
	client     *http.Client
	cfg        *config.HTTPConfig
	logger     *slog.Logger
	userAgents []string
	uaIndex    atomic.Int64

	// safeURL gates every request before network activity. Tests running
	// against loopback servers swap it out.
	safeURL func(string) bool
}

// NewHTTPFetcher creates a new HTTP fetcher.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.HTTP.Timeout,
	}

	return &HTTPFetcher{
		client:     client,
		cfg:        &cfg.HTTP,
		logger:     logger.With("component", "http_fetcher"),
		userAgents: cfg.HTTP.UserAgents,
		safeURL:    security.IsSafeURL,
	}, nil
}

// Fetch retrieves rawURL, retrying per the backoff policy. The safety gate
// runs before any network activity; a rejected URL consumes no attempts.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, purpose Purpose) Outcome {
	if !f.safeURL(rawURL) {
		return Outcome{URL: rawURL, Err: &types.FetchError{
			URL:  rawURL,
			Kind: types.FailureRejected,
			Err:  types.ErrInvalidURL,
		}}
	}

	budget := f.cfg.MaxRetries + 1
	if budget < 1 {
		budget = 1
	}
	var last *types.FetchError

	for attempt := 1; attempt <= budget; attempt++ {
		body, ctype, status, ferr := f.attempt(ctx, rawURL, purpose)
		if ferr == nil {
			return Outcome{URL: rawURL, Body: body, StatusCode: status, ContentType: ctype, Attempts: attempt}
		}
		last = ferr

		delay, retry := BackoffFor(ferr.Kind, attempt, f.cfg.RetryDelay)
		if !retry || attempt == budget {
			break
		}

		f.logger.Debug("fetch retry",
			"url", rawURL,
			"attempt", attempt,
			"kind", ferr.Kind.String(),
			"delay", delay,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Outcome{URL: rawURL, Attempts: attempt, Err: &types.FetchError{
				URL:  rawURL,
				Kind: types.FailureTimeout,
				Err:  ctx.Err(),
			}}
		}
	}

	f.logger.Debug("fetch failed",
		"url", rawURL,
		"kind", last.Kind.String(),
		"status", last.StatusCode,
	)
	return Outcome{URL: rawURL, StatusCode: last.StatusCode, Attempts: budget, Err: last}
}

// FetchOnce performs a single attempt with no retry budget. Used for
// speculative requests where a miss is the common case.
func (f *HTTPFetcher) FetchOnce(ctx context.Context, rawURL string, purpose Purpose) Outcome {
	if !f.safeURL(rawURL) {
		return Outcome{URL: rawURL, Err: &types.FetchError{
			URL:  rawURL,
			Kind: types.FailureRejected,
			Err:  types.ErrInvalidURL,
		}}
	}
	body, ctype, status, ferr := f.attempt(ctx, rawURL, purpose)
	if ferr != nil {
		return Outcome{URL: rawURL, StatusCode: status, Attempts: 1, Err: ferr}
	}
	return Outcome{URL: rawURL, Body: body, StatusCode: status, ContentType: ctype, Attempts: 1}
}

// attempt performs one HTTP round trip with a freshly rotated identity.
func (f *HTTPFetcher) attempt(ctx context.Context, rawURL string, purpose Purpose) (string, string, int, *types.FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", 0, &types.FetchError{URL: rawURL, Kind: types.FailureRejected, Err: err}
	}

	req.Header.Set("User-Agent", f.nextUserAgent())
	if purpose == PurposeFeed {
		req.Header.Set("Accept", acceptFeed)
	} else {
		req.Header.Set("Accept", acceptPage)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", 0, &types.FetchError{URL: rawURL, Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden:
		return "", "", resp.StatusCode, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Kind: types.FailureBlocked}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", "", resp.StatusCode, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Kind: types.FailureRateLimited}
	case resp.StatusCode >= 500:
		return "", "", resp.StatusCode, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Kind: types.FailureServerError}
	default:
		return "", "", resp.StatusCode, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Kind: types.FailureUnexpectedStatus}
	}

	var reader io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return "", "", resp.StatusCode, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Kind: types.FailureNetwork, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", "", resp.StatusCode, &types.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Kind: types.FailureNetwork, Err: err}
	}

	return string(body), resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// nextUserAgent returns the next User-Agent in rotation.
func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "medfeed/" + config.Version
	}
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// classifyTransportError sorts a transport-level error into a failure kind.
// Certificate problems are terminal; timeouts and resets are transient.
func classifyTransportError(err error) types.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.FailureTimeout
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return types.FailureTLS
	}
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &unknownAuth) {
		return types.FailureTLS
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return types.FailureTLS
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return types.FailureTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.FailureTimeout
	}

	return types.FailureNetwork
}
