package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstracker_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"route", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "isstracker_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	datasetEpochs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstracker_dataset_epochs",
			Help: "Number of state vectors in the loaded ephemeris dataset.",
		},
	)

	datasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstracker_dataset_age_seconds",
			Help: "Age of the loaded ephemeris dataset in seconds, -1 when none.",
		},
	)

	geocoderLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstracker_geocoder_lookups_total",
			Help: "Reverse geocoder lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	trackBuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstracker_track_builds_total",
			Help: "Number of ground track builds performed.",
		},
	)

	trackBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "isstracker_track_build_seconds",
			Help:    "Ground track build duration in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	trackCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstracker_track_cache_hits_total",
			Help: "Ground track requests served from the memoized track.",
		},
	)

	trackCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "isstracker_track_cache_misses_total",
			Help: "Ground track requests that triggered a rebuild.",
		},
	)

	activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "isstracker_active_streams",
			Help: "Number of currently connected SSE clients.",
		},
	)

	streamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstracker_stream_events_total",
			Help: "SSE events sent, by event type.",
		},
		[]string{"type"},
	)

	streamDisconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isstracker_stream_disconnects_total",
			Help: "SSE client disconnects, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		datasetEpochs,
		datasetAgeSeconds,
		geocoderLookupsTotal,
		trackBuildsTotal,
		trackBuildSeconds,
		trackCacheHitsTotal,
		trackCacheMissesTotal,
		activeStreams,
		streamEventsTotal,
		streamDisconnectsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetDatasetEpochs records the size of the loaded dataset.
func SetDatasetEpochs(n int) {
	datasetEpochs.Set(float64(n))
}

// SetDatasetAge records the age of the loaded dataset.
func SetDatasetAge(seconds float64) {
	datasetAgeSeconds.Set(seconds)
}

// IncGeocoderLookup counts one reverse geocoder lookup; result is "hit"
// or "miss".
func IncGeocoderLookup(result string) {
	geocoderLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveTrackBuild records one ground track build and its duration.
func ObserveTrackBuild(d time.Duration) {
	trackBuildsTotal.Inc()
	trackBuildSeconds.Observe(d.Seconds())
}

// IncTrackCacheHit counts a track request served from memory.
func IncTrackCacheHit() {
	trackCacheHitsTotal.Inc()
}

// IncTrackCacheMiss counts a track request that triggered a rebuild.
func IncTrackCacheMiss() {
	trackCacheMissesTotal.Inc()
}

// IncActiveStreams marks one SSE client connected.
func IncActiveStreams() {
	activeStreams.Inc()
}

// DecActiveStreams marks one SSE client gone.
func DecActiveStreams() {
	activeStreams.Dec()
}

// IncStreamEvent counts one sent SSE event of the given type.
func IncStreamEvent(kind string) {
	streamEventsTotal.WithLabelValues(kind).Inc()
}

// IncStreamDisconnect counts one client disconnect with its reason.
func IncStreamDisconnect(reason string) {
	streamDisconnectsTotal.WithLabelValues(reason).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
// Flush and Unwrap pass through so the SSE stream keeps its flusher and
// write-deadline control behind the wrapper.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// exactRoutes are the fixed paths the server registers. Anything else is
// either an epoch-parameterized route or noise from scanners.
var exactRoutes = map[string]struct{}{
	"/":                {},
	"/healthz":         {},
	"/readyz":          {},
	"/metrics":         {},
	"/epochs":          {},
	"/comment":         {},
	"/header":          {},
	"/metadata":        {},
	"/now":             {},
	"/track":           {},
	"/passes":          {},
	"/stream/position": {},
}

// normalizeRoute maps a request path to a bounded set of metric labels.
// Epoch identifiers would otherwise explode label cardinality, one
// series per timestamp ever queried.
func normalizeRoute(path string) string {
	if _, ok := exactRoutes[path]; ok {
		return path
	}

	if rest, ok := strings.CutPrefix(path, "/epochs/"); ok && rest != "" {
		epoch, view, hasView := strings.Cut(rest, "/")
		if epoch == "" {
			return "other"
		}
		if !hasView {
			return "/epochs/{epoch}"
		}
		switch view {
		case "speed", "location", "sighting":
			return "/epochs/{epoch}/" + view
		}
		return "other"
	}

	return "other"
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
