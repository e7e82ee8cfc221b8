// Package passes finds visibility windows for a ground observer by
// scanning the loaded ephemeris. A pass is a maximal run of consecutive
// epochs whose elevation clears the requested threshold; rise, peak and
// set are reported at epoch resolution, matching the cadence of the
// source data rather than interpolating between samples.
package passes

import (
	"context"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/geo"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

// Point is the observer's view of the spacecraft at one epoch inside a
// pass.
type Point struct {
	Epoch        string    `json:"epoch"`
	Time         time.Time `json:"time"`
	AzimuthDeg   float64   `json:"azimuth_deg"`
	ElevationDeg float64   `json:"elevation_deg"`
	RangeKm      float64   `json:"range_km"`
}

// Pass describes a single visibility window over the observer.
type Pass struct {
	Start           time.Time `json:"start"`
	Peak            time.Time `json:"peak"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`
	MaxElevationDeg float64   `json:"max_elevation_deg"`
	StartAzimuthDeg float64   `json:"start_azimuth_deg"`
	PeakAzimuthDeg  float64   `json:"peak_azimuth_deg"`
	EndAzimuthDeg   float64   `json:"end_azimuth_deg"`
	Points          []Point   `json:"points"`
}

// Request holds the parameters for a pass search.
type Request struct {
	Observer        transform.Observer
	MinElevationDeg float64 // passes must clear this elevation
	MaxPasses       int     // 0 means no limit
}

// ctxCheckEvery bounds how often the scan polls for cancellation.
const ctxCheckEvery = 256

// Predict scans every epoch of the dataset in order and returns the
// visibility windows chronologically. Epochs whose state vectors cannot
// be sighted end any open window and are skipped.
func Predict(ctx context.Context, ds *oem.Dataset, conv *geo.Converter, req Request) ([]Pass, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, oem.ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		passes []Pass
		open   []Point
	)
	closeOpen := func() {
		if len(open) == 0 {
			return
		}
		passes = append(passes, buildPass(open))
		open = nil
	}

	for i := range ds.Epochs {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		// A window only closes on a below-threshold epoch, so open is
		// always empty once the cap has been reached.
		if req.MaxPasses > 0 && len(passes) >= req.MaxPasses {
			break
		}

		sv := &ds.Epochs[i]
		s, err := conv.Sight(sv.Position, sv.Velocity, sv.Time, req.Observer)
		if err != nil {
			closeOpen()
			continue
		}
		if s.ElevationDeg < req.MinElevationDeg {
			closeOpen()
			continue
		}

		open = append(open, Point{
			Epoch:        sv.Epoch,
			Time:         sv.Time,
			AzimuthDeg:   s.AzimuthDeg,
			ElevationDeg: s.ElevationDeg,
			RangeKm:      s.RangeKm,
		})
	}
	closeOpen()

	return passes, nil
}

// buildPass summarizes one run of above-threshold points.
func buildPass(points []Point) Pass {
	peak := 0
	for i := 1; i < len(points); i++ {
		if points[i].ElevationDeg > points[peak].ElevationDeg {
			peak = i
		}
	}
	first, last := points[0], points[len(points)-1]

	return Pass{
		Start:           first.Time,
		Peak:            points[peak].Time,
		End:             last.Time,
		DurationSeconds: last.Time.Sub(first.Time).Seconds(),
		MaxElevationDeg: points[peak].ElevationDeg,
		StartAzimuthDeg: first.AzimuthDeg,
		PeakAzimuthDeg:  points[peak].AzimuthDeg,
		EndAzimuthDeg:   last.AzimuthDeg,
		Points:          points,
	}
}
