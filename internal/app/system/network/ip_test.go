package network

import (
	"net/http/httptest"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{name: "forwarded chain", xff: "203.0.113.7, 10.0.0.2", remoteAddr: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "forwarded padded", xff: "  198.51.100.4 ", remoteAddr: "10.0.0.1:1234", want: "198.51.100.4"},
		{name: "real ip", xRealIP: "198.51.100.9", remoteAddr: "10.0.0.1:1234", want: "198.51.100.9"},
		{name: "forwarded beats real ip", xff: "203.0.113.7", xRealIP: "198.51.100.9", remoteAddr: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "remote with port", remoteAddr: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "remote without port", remoteAddr: "192.0.2.10", want: "192.0.2.10"},
		{name: "ipv6 remote", remoteAddr: "[::1]:8080", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/contact", nil)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			req.RemoteAddr = tt.remoteAddr

			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
