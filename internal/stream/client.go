package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
)

// writeWindow is how long a single SSE write may block before the
// connection is treated as dead.
const writeWindow = 30 * time.Second

// client wraps one SSE connection. Every frame goes out through push,
// which renews the write deadline and flushes immediately.
type client struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	logger  *slog.Logger
}

// newClient prepares an SSE client for w. ok is false when the
// ResponseWriter cannot flush, which rules out streaming.
func newClient(w http.ResponseWriter, logger *slog.Logger) (*client, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &client{
		w:       w,
		flusher: flusher,
		rc:      http.NewResponseController(w),
		logger:  logger,
	}, true
}

// begin commits the SSE response: headers, status, and a jittered retry
// hint (3-7s) so a restart does not produce a synchronized reconnect wave.
func (c *client) begin() {
	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx would otherwise buffer the stream
	c.w.WriteHeader(http.StatusOK)
	c.flusher.Flush()

	// The server-wide write timeout would kill a long-lived stream; writes
	// carry their own deadline instead (see push).
	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil {
		c.logger.Debug("could not clear write deadline", "error", err)
	}

	_ = c.push([]byte(fmt.Sprintf("retry: %d\n\n", 3000+rand.Intn(4000))))
}

// push writes one raw frame, renewing the write deadline first.
func (c *client) push(frame []byte) error {
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeWindow)); err != nil {
		c.logger.Debug("could not set write deadline", "error", err)
	}
	if _, err := c.w.Write(frame); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// sendEvent marshals v and frames it as an SSE data message,
// "data: {json}\n\n". kind labels the event counter.
func (c *client) sendEvent(kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)

	if err := c.push(frame); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	metrics.IncStreamEvent(kind)
	return nil
}

// sendKeepalive emits the SSE comment frame ":\n\n".
func (c *client) sendKeepalive() error {
	if err := c.push([]byte(":\n\n")); err != nil {
		return fmt.Errorf("keepalive write: %w", err)
	}
	metrics.IncStreamEvent("keepalive")
	return nil
}
