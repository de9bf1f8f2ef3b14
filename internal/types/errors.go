package types

import (
	"errors"
	"fmt"
)

// FailureKind classifies a fetch failure for the retry policy.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureRejected: blocked by the URL safety gate. Permanent.
	FailureRejected
	// FailureBlocked: HTTP 403, bot detection likely.
	FailureBlocked
	// FailureRateLimited: HTTP 429.
	FailureRateLimited
	// FailureServerError: HTTP 5xx.
	FailureServerError
	// FailureUnexpectedStatus: any other non-200 status. Never retried.
	FailureUnexpectedStatus
	// FailureTimeout: request deadline exceeded.
	FailureTimeout
	// FailureTLS: certificate or handshake failure. Never retried.
	FailureTLS
	// FailureNetwork: any other transport-level error.
	FailureNetwork
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureRejected:
		return "rejected"
	case FailureBlocked:
		return "blocked"
	case FailureRateLimited:
		return "rate limited"
	case FailureServerError:
		return "server error"
	case FailureUnexpectedStatus:
		return "unexpected status"
	case FailureTimeout:
		return "timeout"
	case FailureTLS:
		return "tls error"
	case FailureNetwork:
		return "network error"
	default:
		return "unknown"
	}
}

// Sentinel errors for configuration-level contract violations. These are the
// only failures that abort a pipeline; ordinary network trouble degrades to
// an empty fetch outcome instead.
var (
	ErrInvalidURL    = errors.New("invalid URL")
	ErrSiteNotUsable = errors.New("site has neither homepage URL nor feeds")
)

// FetchError describes why a fetch attempt (or its whole retry budget)
// failed. It rides inside a fetch outcome; nothing in the pipeline panics
// over it.
type FetchError struct {
	URL        string
	StatusCode int
	Kind       FailureKind
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }
