// Package fetcher retrieves remote documents over HTTP with per-attempt
// identity rotation and a status-aware retry policy.
package fetcher

import (
	"context"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Purpose selects the Accept header for a fetch. Feeds advertise XML
// preference; pages advertise a browser-like HTML preference.
type Purpose int

const (
	PurposePage Purpose = iota
	PurposeFeed
)

func (p Purpose) String() string {
	if p == PurposeFeed {
		return "feed"
	}
	return "page"
}

// Outcome is the result of a fetch, successful or not. Err is nil exactly
// when OK reports true; callers that only care about "did we get a body"
// check OK and move on.
type Outcome struct {
	URL         string
	Body        string
	StatusCode  int
	ContentType string
	Attempts    int
	Err         *types.FetchError
}

// OK reports whether the fetch produced a usable document.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Fetcher retrieves a document at a URL. FetchOnce skips the retry budget
// for cheap speculative requests like feed-path probes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, purpose Purpose) Outcome
	FetchOnce(ctx context.Context, rawURL string, purpose Purpose) Outcome
}
