package httputil

import (
	"net/http"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		trust      bool
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "remote addr ipv6 with port", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "headers ignored when proxy not trusted", remoteAddr: "10.0.0.1:1234", xff: "1.2.3.4", realIP: "5.6.7.8", want: "10.0.0.1"},
		{name: "single forwarded entry", remoteAddr: "10.0.0.1:1234", xff: "1.2.3.4", trust: true, want: "1.2.3.4"},
		{name: "leftmost forwarded entry wins", remoteAddr: "10.0.0.3:1234", xff: "1.2.3.4, 10.0.0.1, 10.0.0.2", trust: true, want: "1.2.3.4"},
		{name: "ipv6 forwarded entry", remoteAddr: "10.0.0.1:1234", xff: "2001:db8::1", trust: true, want: "2001:db8::1"},
		{name: "real ip when no forwarded header", remoteAddr: "10.0.0.1:1234", realIP: "5.6.7.8", trust: true, want: "5.6.7.8"},
		{name: "forwarded beats real ip", remoteAddr: "10.0.0.1:1234", xff: "1.2.3.4", realIP: "5.6.7.8", trust: true, want: "1.2.3.4"},
		{name: "unparseable forwarded entry falls through", remoteAddr: "10.0.0.1:1234", xff: "not-an-ip", realIP: "5.6.7.8", trust: true, want: "5.6.7.8"},
		{name: "forwarded entry with port is not an ip", remoteAddr: "10.0.0.1:1234", xff: "1.2.3.4:5678", trust: true, want: "10.0.0.1"},
		{name: "trusted but no headers", remoteAddr: "10.0.0.1:1234", trust: true, want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remoteAddr, Header: http.Header{}}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r, tt.trust); got != tt.want {
				t.Errorf("ClientIP(%q, trust=%v) = %q, want %q", tt.remoteAddr, tt.trust, got, tt.want)
			}
		})
	}
}
