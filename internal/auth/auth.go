// Package auth provides optional bearer-token protection for the data
// routes. Probes and metrics stay public so the platform can always
// reach them.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Config holds authentication settings. Auth is off by default; when
// Enabled, every non-exempt route requires the configured token.
type Config struct {
	Enabled bool
	Token   string
}

// exempt lists paths that never require a token.
var exempt = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Middleware enforces bearer-token auth on non-exempt paths when enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Enabled && !exempt[r.URL.Path] && !authorized(cfg.Token, r) {
				deny(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authorized checks the Authorization header for the expected bearer
// token in constant time.
func authorized(token string, r *http.Request) bool {
	presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}

func deny(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
