// Package api implements the HTTP route layer: route registration,
// parameter parsing, error-to-status mapping and the middleware chain.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sheikhmt/taha-iss-tracker/internal/auth"
	"github.com/sheikhmt/taha-iss-tracker/internal/geo"
	"github.com/sheikhmt/taha-iss-tracker/internal/health"
	"github.com/sheikhmt/taha-iss-tracker/internal/httputil"
	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/track"
)

// Connection timeouts. SSE connections clear the write deadline for
// themselves through http.ResponseController.
const (
	readTimeout       = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server wraps the configured http.Server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server with all routes registered.
// streamHandler serves GET /stream/position and is owned by the stream
// package.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, trustProxy bool,
	store *oem.Store, conv *geo.Converter, tracks *track.Cache, streamHandler http.Handler) *Server {

	handler := wrap(routes(logger, store, conv, tracks, streamHandler),
		metrics.Middleware,
		requestIDMiddleware,
		loggingMiddleware(logger, trustProxy),
		auth.Middleware(authCfg),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: logger,
	}
}

// HTTPServer exposes the underlying *http.Server for shutdown control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// routes builds the mux. Go 1.22 patterns carry the method and the
// {epoch} wildcard.
func routes(logger *slog.Logger, store *oem.Store, conv *geo.Converter,
	tracks *track.Cache, streamHandler http.Handler) *http.ServeMux {

	mux := http.NewServeMux()

	// Probes and metrics.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.ReadyzHandler(store))
	mux.Handle("GET /metrics", metrics.Handler())

	// Dataset routes.
	mux.HandleFunc("GET /epochs", epochsHandler(store))
	mux.HandleFunc("GET /epochs/{epoch}", epochHandler(store))
	mux.HandleFunc("GET /epochs/{epoch}/speed", speedHandler(store))
	mux.HandleFunc("GET /epochs/{epoch}/location", locationHandler(logger, store, conv))
	mux.HandleFunc("GET /epochs/{epoch}/sighting", sightingHandler(logger, store, conv))
	mux.HandleFunc("GET /now", nowHandler(logger, store, conv))
	mux.HandleFunc("GET /comment", commentHandler(store))
	mux.HandleFunc("GET /header", headerHandler(store))
	mux.HandleFunc("GET /metadata", metadataHandler(store))
	mux.HandleFunc("GET /track", trackHandler(logger, store, tracks))
	mux.HandleFunc("GET /passes", passesHandler(logger, store, conv))

	// Live feed.
	mux.Handle("GET /stream/position", streamHandler)

	return mux
}

// wrap layers middlewares around h, first element outermost.
func wrap(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type requestIDKey struct{}

// requestIDFrom returns the request ID stored by requestIDMiddleware,
// or "" when called outside the chain.
func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestIDMiddleware tags each request with an ID, honoring a caller's
// X-Request-ID header when it is present and reasonably sized.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLevel keeps probe chatter at Debug and everything else at Info.
func requestLevel(path string) slog.Level {
	if path == "/healthz" || path == "/readyz" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// statusWriter records the response code for the request log. Flush and
// Unwrap pass through for the SSE route.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Log(r.Context(), requestLevel(r.URL.Path), "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sw.status),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
				"request_id", requestIDFrom(r.Context()),
			)
		})
	}
}
