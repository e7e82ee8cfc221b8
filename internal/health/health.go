// Package health exposes the liveness and readiness probe handlers.
package health

import (
	"net/http"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// ReadyzHandler reports ready once an ephemeris dataset has been
// loaded into the store. Until then the service can answer probes but
// no data queries, so it stays out of rotation.
func ReadyzHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if store.Get() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("no dataset loaded\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready\n"))
	}
}
