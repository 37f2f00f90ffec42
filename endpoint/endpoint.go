// Package endpoint turns the message endpoint reported by an MCP peer into an
// address that can be dialed.
//
// Some servers advertise a path that repeats their own hostname as the first
// path segment, e.g. "/127.0.0.1/messages/abc123" for a server reached at
// "http://127.0.0.1:8000/sse". Resolving that naively yields
// "http://127.0.0.1:8000/127.0.0.1/messages/abc123", which the server does
// not route. [Normalize] strips that one segment before resolving.
package endpoint

import (
	"net/url"
	"strings"
)

// IsAbsolute reports whether addr carries an http or https scheme prefix.
func IsAbsolute(addr string) bool {
	return strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://")
}

// Normalize resolves fragment against base.
//
// Absolute fragments are returned unchanged. Otherwise, if the first path
// segment of fragment equals the hostname of base and more segments follow,
// that segment is dropped. The result is resolved against base following
// RFC 3986 section 5.
//
// Normalize never fails: input it cannot parse is resolved on a best-effort
// basis, and callers must treat the result as a suggestion.
func Normalize(base, fragment string) string {
	if IsAbsolute(fragment) {
		return fragment
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return fragment
	}

	if host := strings.ToLower(baseURL.Hostname()); host != "" {
		parts := strings.Split(fragment, "/")
		if len(parts) > 2 && parts[1] == host {
			fragment = "/" + strings.Join(parts[2:], "/")
		}
	}

	ref, err := url.Parse(fragment)
	if err != nil {
		return joinVerbatim(baseURL, fragment)
	}
	return baseURL.ResolveReference(ref).String()
}

// joinVerbatim appends fragment to the scheme and authority of base without
// interpreting it.
func joinVerbatim(base *url.URL, fragment string) string {
	prefix := base.Scheme + "://" + base.Host
	if strings.HasPrefix(fragment, "/") {
		return prefix + fragment
	}
	return prefix + "/" + fragment
}
