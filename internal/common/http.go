package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address. chi's RealIP middleware has usually
// already folded X-Forwarded-For into RemoteAddr; the header is consulted
// only when it has not.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(r.RemoteAddr)
}
