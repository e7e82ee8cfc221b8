package track

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

// cachedTrack pairs a built track with the LoadedAt stamp of the dataset
// it was derived from. Immutable after construction; safe for concurrent
// reads.
type cachedTrack struct {
	track    *Track
	loadedAt time.Time
}

// Cache hands out the ground track for the current dataset, rebuilding
// only when the dataset changes (double-checked locking).
type Cache struct {
	builder *Builder
	logger  *slog.Logger
	cur     atomic.Pointer[cachedTrack]
	mu      sync.Mutex // serializes rebuilds
}

// NewCache creates a track cache backed by the given builder.
func NewCache(builder *Builder, logger *slog.Logger) *Cache {
	return &Cache{
		builder: builder,
		logger:  logger,
	}
}

// Track returns the ground track for ds, building it on first use.
// The cache key is the dataset's LoadedAt stamp, so a freshly fetched
// ephemeris invalidates the previous track.
func (c *Cache) Track(ctx context.Context, ds *oem.Dataset) (*Track, error) {
	if ds == nil {
		return nil, oem.ErrEmptyDataset
	}

	if cur := c.cur.Load(); cur != nil && cur.loadedAt.Equal(ds.LoadedAt) {
		metrics.IncTrackCacheHit()
		return cur.track, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur := c.cur.Load(); cur != nil && cur.loadedAt.Equal(ds.LoadedAt) {
		metrics.IncTrackCacheHit()
		return cur.track, nil
	}

	metrics.IncTrackCacheMiss()

	start := time.Now()
	trk, err := c.builder.Build(ctx, ds)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)
	metrics.ObserveTrackBuild(duration)

	c.logger.Info("ground track rebuilt",
		"points", trk.Len(),
		"dataset_loaded_at", ds.LoadedAt.UTC().Format(time.RFC3339),
		"duration_ms", duration.Milliseconds(),
	)

	c.cur.Store(&cachedTrack{track: trk, loadedAt: ds.LoadedAt})
	return trk, nil
}
