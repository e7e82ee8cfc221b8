// Package stream implements the Server-Sent Events (SSE) live position
// feed. Clients connect via GET /stream/position and receive the
// spacecraft position resolved against the loaded ephemeris on a fixed
// cadence.
//
// SSE message format:
//
//	data: {"type":"position","epoch":"...","latitude":45.1,...}\n\n
//
// First message is always metadata describing the loaded dataset:
//
//	data: {"type":"metadata","source":"...","epoch_count":5760}\n\n
//
// Keep-alive comments (:\n\n) go out every KeepaliveInterval to prevent
// proxy idle timeouts. Reconnecting clients receive a fresh metadata
// message on each connection.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/geo"
	"github.com/sheikhmt/taha-iss-tracker/internal/httputil"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// Bounds for the ?interval= query parameter, in whole seconds.
const (
	minIntervalSeconds = 1
	maxIntervalSeconds = 60
)

// Config holds streaming configuration.
type Config struct {
	Interval           time.Duration // Position event cadence when ?interval= is absent (default: 5s).
	KeepaliveInterval  time.Duration // Keep-alive comment interval (default: 30s).
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	TrustProxy         bool          // Trust X-Forwarded-For / X-Real-IP for the limiter identity.
}

// Handler manages SSE streaming connections.
type Handler struct {
	store   *oem.Store
	conv    *geo.Converter
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(store *oem.Store, conv *geo.Converter, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		conv:    conv,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

// ServeHTTP serves the SSE position stream.
// GET /stream/position?interval=5
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	interval, err := h.tickInterval(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamDisconnect("rate_limited")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeJSONError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}
	metrics.IncActiveStreams()

	connectedAt := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval_seconds", int(interval.Seconds()),
	)

	reason := "client_gone"
	defer func() {
		h.limiter.release(ip)
		metrics.DecActiveStreams()
		metrics.IncStreamDisconnect(reason)
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"reason", reason,
			"duration_seconds", int(time.Since(connectedAt).Seconds()),
		)
	}()

	c, ok := newClient(w, h.logger)
	if !ok {
		reason = "no_flusher"
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	c.begin()

	// Metadata leads on every connection.
	if ds := h.store.Get(); ds != nil {
		if err := c.sendEvent("metadata", buildMetadataEvent(ds, time.Now())); err != nil {
			reason = "write_error"
			h.logger.Warn("stream send error", "remote_ip", ip, "stage", "metadata", "error", err)
			return
		}
	}

	reason = h.run(r.Context(), c, ip, interval)
}

// run pushes position events until the client goes away or a write fails.
// The returned string is the disconnect reason recorded in metrics.
func (h *Handler) run(ctx context.Context, c *client, ip string, interval time.Duration) string {
	positions := time.NewTicker(interval)
	defer positions.Stop()

	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return "client_gone"

		case now := <-positions.C:
			ev, ok := h.resolvePosition(now.UTC(), ip)
			if !ok {
				continue
			}
			if err := c.sendEvent("position", ev); err != nil {
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return "write_error"
			}
			// Fresh data restarts the keepalive clock.
			keepalive.Reset(h.config.KeepaliveInterval)

		case <-keepalive.C:
			if err := c.sendKeepalive(); err != nil {
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return "write_error"
			}
		}
	}
}

// resolvePosition maps a tick instant to the nearest ephemeris sample and
// its ground position. Misses skip the tick rather than ending the stream:
// the dataset may be absent at startup and appear later.
func (h *Handler) resolvePosition(now time.Time, ip string) (positionEvent, bool) {
	ds := h.store.Get()
	if ds == nil || ds.Len() == 0 {
		h.logger.Debug("stream tick with no dataset", "remote_ip", ip)
		return positionEvent{}, false
	}

	sv, err := ds.Nearest(now)
	if err != nil {
		h.logger.Debug("stream tick resolve failed", "remote_ip", ip, "error", err)
		return positionEvent{}, false
	}
	loc, err := h.conv.Locate(sv.Position, sv.Time)
	if err != nil {
		h.logger.Warn("stream tick conversion failed",
			"remote_ip", ip,
			"epoch", sv.Epoch,
			"error", err,
		)
		return positionEvent{}, false
	}
	return buildPositionEvent(sv, loc, now), true
}

// tickInterval resolves the event cadence: the interval query parameter
// when present, the configured default otherwise.
func (h *Handler) tickInterval(r *http.Request) (time.Duration, error) {
	v := r.URL.Query().Get("interval")
	if v == "" {
		return h.config.Interval, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minIntervalSeconds || n > maxIntervalSeconds {
		return 0, fmt.Errorf("invalid interval parameter, must be %d-%d", minIntervalSeconds, maxIntervalSeconds)
	}
	return time.Duration(n) * time.Second, nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// buildMetadataEvent summarizes the loaded dataset for a newly connected
// client.
func buildMetadataEvent(ds *oem.Dataset, now time.Time) metadataEvent {
	return metadataEvent{
		Type:       "metadata",
		Source:     ds.Source,
		LoadedAt:   ds.LoadedAt.UTC().Format(time.RFC3339),
		AgeSeconds: int(now.Sub(ds.LoadedAt).Seconds()),
		EpochCount: ds.Len(),
		EpochStart: ds.EpochRange.Min.UTC().Format(time.RFC3339),
		EpochEnd:   ds.EpochRange.Max.UTC().Format(time.RFC3339),
	}
}

// buildPositionEvent formats one resolved state vector into the SSE
// position payload.
func buildPositionEvent(sv *oem.StateVector, loc geo.Location, resolvedAt time.Time) positionEvent {
	return positionEvent{
		Type:        "position",
		Epoch:       sv.Epoch,
		Time:        sv.Time.UTC().Format(time.RFC3339),
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		AltitudeKm:  loc.AltitudeKm,
		Geolocation: loc.Geolocation,
		SpeedKmS:    sv.Speed(),
		ResolvedAt:  resolvedAt.Format(time.RFC3339),
	}
}

// SSE message payload types.

type metadataEvent struct {
	Type       string `json:"type"`
	Source     string `json:"source"`
	LoadedAt   string `json:"loaded_at"`
	AgeSeconds int    `json:"age_seconds"`
	EpochCount int    `json:"epoch_count"`
	EpochStart string `json:"epoch_start"`
	EpochEnd   string `json:"epoch_end"`
}

type positionEvent struct {
	Type        string  `json:"type"`
	Epoch       string  `json:"epoch"`
	Time        string  `json:"time"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeKm  float64 `json:"altitude_km"`
	Geolocation string  `json:"geolocation"`
	SpeedKmS    float64 `json:"speed_km_s"`
	ResolvedAt  string  `json:"resolved_at"`
}
