// Package network provides request-level network helpers.
package network

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the address of the client that sent r.
// Behind a reverse proxy the first X-Forwarded-For entry wins, then
// X-Real-IP; otherwise the host part of RemoteAddr is used.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
