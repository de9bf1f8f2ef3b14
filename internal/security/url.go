// Package security validates outbound target URLs before any network call
// is made, to keep the aggregator from being steered into internal or
// private network addresses (SSRF).
package security

import (
	"net"
	"net/url"
	"strings"
)

// Hostnames rejected outright, before any IP classification.
var blockedHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
	"[::1]":     {},
}

// IsSafeURL reports whether a URL is acceptable as an outbound fetch target.
// It rejects non-HTTP(S) schemes, well-known loopback hostnames, and literal
// IP hosts that are private, loopback, link-local, or otherwise reserved.
//
// Domain names are accepted without DNS resolution, so a hostname that
// resolves to a private address at request time is not caught here. That
// residual DNS-rebinding gap is a known limitation, accepted to keep the
// gate fast and side-effect free.
//
// IsSafeURL is total: it returns false for anything it cannot parse and
// never panics.
func IsSafeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if _, blocked := blockedHosts[host]; blocked {
		return false
	}

	// Literal IP hosts get the full classification. Anything that is not a
	// global unicast address stays inside the fence.
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
			ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
			return false
		}
	}

	return true
}
