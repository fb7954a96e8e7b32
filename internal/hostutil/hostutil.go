// Package hostutil normalizes and vets the base URLs credentials are sent to.
package hostutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Normalize turns a bare host into a base URL and strips trailing slashes.
// Loopback hosts get http://, everything else https://. Empty stays empty.
func Normalize(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if strings.Contains(host, "://") {
		return host
	}
	if IsLocalhost(host) {
		return "http://" + host
	}
	return "https://" + host
}

// IsLocalhost reports whether host (optionally with a port) names the
// loopback interface: localhost, *.localhost, 127.0.0.1 or [::1].
func IsLocalhost(host string) bool {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		name = host[1 : len(host)-1]
	} else if strings.Count(host, ":") > 1 {
		// Unbracketed IPv6 cannot appear in a URL.
		return false
	}

	switch {
	case name == "localhost", strings.HasSuffix(name, ".localhost"):
		return true
	case name == "127.0.0.1", name == "::1":
		return true
	}
	return false
}

// RequireSecureURL rejects plain-http URLs unless they point at loopback.
func RequireSecureURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if IsLocalhost(u.Host) {
			return nil
		}
		return fmt.Errorf("refusing insecure http:// URL %q (only loopback hosts may use http)", raw)
	default:
		return fmt.Errorf("unsupported URL scheme in %q", raw)
	}
}
