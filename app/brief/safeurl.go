package brief

import (
	"net"
	"net/url"
	"strings"
)

var blockedHosts = map[string]bool{
	"localhost": true,
}

// IsSafeURL reports whether a link is safe to render to end users as an
// outbound reference. Only https URLs with a resolvable-looking public
// hostname pass: bare IP addresses (IPv4 and IPv6, which covers loopback,
// RFC-1918, and link-local ranges), localhost, and single-label hostnames
// are all rejected.
func IsSafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	if blockedHosts[host] {
		return false
	}

	// Hostname() strips brackets from IPv6 literals, so ParseIP catches
	// every bare-IP host in one check
	if net.ParseIP(host) != nil {
		return false
	}

	// Single-label names (e.g. "internal") resolve via search domains
	if !strings.Contains(host, ".") {
		return false
	}

	return true
}
