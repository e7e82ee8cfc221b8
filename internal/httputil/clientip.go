// Package httputil holds small request helpers shared by the API and
// stream layers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from the request.
// When trustProxy is true, X-Forwarded-For (first entry) and X-Real-IP
// are consulted before RemoteAddr, and header values that do not parse
// as IP addresses are ignored. Only enable trustProxy when the server
// sits behind a reverse proxy that overwrites these headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := headerIP(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := headerIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// headerIP returns the first entry of a forwarding header value if it
// is a valid bare IP address, else "".
func headerIP(v string) string {
	if v == "" {
		return ""
	}
	// Leftmost entry is the original client.
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	if net.ParseIP(v) == nil {
		return ""
	}
	return v
}
