// Package track derives ground tracks from ephemeris datasets: the
// geodetic point directly beneath the spacecraft at every state vector
// epoch. Conversion fans out over a worker pool and the finished track
// is cached per dataset, so repeated requests against the same
// ephemeris pay the cost once.
package track

import "time"

// Point is the subsatellite point for a single ephemeris epoch.
// Latitude and longitude are geodetic degrees, altitude is km above
// the WGS-84 ellipsoid.
type Point struct {
	Epoch      string    `json:"epoch"`
	Time       time.Time `json:"time"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AltitudeKm float64   `json:"altitude_km"`
}

// Track is the full ground track for one dataset, one point per state
// vector in epoch order.
type Track struct {
	BuiltAt time.Time `json:"built_at"`
	Points  []Point   `json:"points"`
}

// Len returns the number of points in the track.
func (t *Track) Len() int {
	return len(t.Points)
}
