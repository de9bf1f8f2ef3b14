package fetcher

import (
	"time"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// BackoffFor maps a failure classification to the delay before the next
// attempt. attempt is 1-based (the attempt that just failed). retry=false
// means the failure is permanent and the budget is abandoned regardless of
// attempts remaining.
//
// Bot blocks back off linearly with the attempt number; rate limits back off
// at double that slope. Server errors and transport trouble wait a flat base
// delay. Certificate failures and unexpected statuses never retry: the
// former will not heal within a fetch budget and the latter (404s, auth
// walls) are not transient.
func BackoffFor(kind types.FailureKind, attempt int, base time.Duration) (delay time.Duration, retry bool) {
	switch kind {
	case types.FailureBlocked:
		return base * time.Duration(attempt), true
	case types.FailureRateLimited:
		return 2 * base * time.Duration(attempt), true
	case types.FailureServerError, types.FailureTimeout, types.FailureNetwork:
		return base, true
	default:
		// FailureRejected, FailureTLS, FailureUnexpectedStatus
		return 0, false
	}
}
