package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc derives the client identifier a request is counted against.
type KeyFunc func(r *http.Request) string

// ClientID keys requests by network origin. Forwarding headers are only
// honoured when the server sits behind a proxy it trusts; otherwise any
// client could pick its own bucket.
func ClientID(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if trustProxy {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
			if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
				return ip
			}
		}

		addr := strings.TrimSpace(r.RemoteAddr)
		host, _, err := net.SplitHostPort(addr)
		if err == nil && host != "" {
			return host
		}
		if addr != "" {
			return addr
		}
		return "unknown"
	}
}
