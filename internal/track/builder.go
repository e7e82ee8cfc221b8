package track

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

// buildJob is a unit of work for the builder pool.
type buildJob struct {
	index int
	sv    oem.StateVector
}

// buildResult is the output of converting a single state vector.
type buildResult struct {
	point Point
	err   error
	index int
}

// Builder converts datasets into ground tracks using a fixed number of
// worker goroutines.
type Builder struct {
	workers int
	logger  *slog.Logger
}

// NewBuilder creates a builder with the given number of workers.
// Values below one are raised to one.
func NewBuilder(workers int, logger *slog.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		workers: workers,
		logger:  logger,
	}
}

// Build converts every state vector in ds to its subsatellite point.
// Points come back in epoch order. A dataset that parsed cleanly only
// fails here when a vector carries non-finite components, and any such
// failure aborts the whole build.
func (b *Builder) Build(ctx context.Context, ds *oem.Dataset) (*Track, error) {
	if ds == nil || len(ds.Epochs) == 0 {
		return nil, oem.ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	jobs := make(chan buildJob, b.workers*2)
	results := make(chan buildResult, b.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := buildPoint(job)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i, sv := range ds.Epochs {
			select {
			case jobs <- buildJob{index: i, sv: sv}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect into index order. Keep the lowest-index error so the
	// reported epoch does not depend on worker scheduling.
	points := make([]Point, len(ds.Epochs))
	completed := 0
	errIndex := -1
	var firstErr error

	for result := range results {
		if result.err != nil {
			if errIndex == -1 || result.index < errIndex {
				errIndex = result.index
				firstErr = result.err
			}
			continue
		}
		points[result.index] = result.point
		completed++
	}

	if firstErr != nil {
		return nil, fmt.Errorf("state vector %d: %w", errIndex, firstErr)
	}
	if completed != len(ds.Epochs) {
		// Only reachable when the context fired mid-build.
		return nil, ctx.Err()
	}

	b.logger.Debug("ground track built",
		"points", len(points),
		"workers", b.workers,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Track{
		BuiltAt: time.Now().UTC(),
		Points:  points,
	}, nil
}

// buildPoint converts one state vector to its subsatellite point.
// Every epoch carries its own timestamp, so GMST is computed per job.
func buildPoint(job buildJob) buildResult {
	sv := job.sv
	if !finite(sv.Position) {
		return buildResult{
			index: job.index,
			err:   fmt.Errorf("epoch %s: non-finite position", sv.Epoch),
		}
	}

	gmst := transform.GMST(sv.Time)
	ecef := transform.ECIToECEFWithGMST(transform.PositionECI(sv.Position), gmst)
	g := transform.ECEFToGeodetic(ecef)

	return buildResult{
		index: job.index,
		point: Point{
			Epoch:      sv.Epoch,
			Time:       sv.Time,
			Latitude:   g.LatDeg,
			Longitude:  g.LonDeg,
			AltitudeKm: g.AltKm,
		},
	}
}

func finite(v oem.Vector3) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
