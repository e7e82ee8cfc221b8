package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

// Location is a geodetic position with its reverse-geocoded label.
// Altitude is km above the WGS-84 ellipsoid, reported as-is (negative
// values are not clamped). Longitude is in [-180, 180].
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeKm  float64 `json:"altitude_km"`
	Geolocation string  `json:"geolocation"`
}

// Sighting is an observer-relative view of the spacecraft. Visible means
// the spacecraft is above the observer's horizon; a negative range rate
// means it is approaching.
type Sighting struct {
	AzimuthDeg   float64 `json:"azimuth_deg"`
	ElevationDeg float64 `json:"elevation_deg"`
	RangeKm      float64 `json:"range_km"`
	RangeRateKmS float64 `json:"range_rate_km_s"`
	Visible      bool    `json:"visible"`
}

// ConversionError reports state vector components that cannot be
// converted to geodetic coordinates.
type ConversionError struct {
	Reason string
}

func (e *ConversionError) Error() string {
	return "geodetic conversion: " + e.Reason
}

// Converter turns inertial-frame state vectors into labeled geodetic
// locations and observer sightings.
type Converter struct {
	gaz *Gazetteer
}

// NewConverter creates a Converter backed by the given gazetteer.
func NewConverter(gaz *Gazetteer) *Converter {
	return &Converter{gaz: gaz}
}

// Locate converts an inertial position sampled at time t into geodetic
// coordinates with the nearest place label attached. The conversion is
// deterministic: the same position and time always yield the same
// Location, so callers may convert the same state vector repeatedly.
func (c *Converter) Locate(pos oem.Vector3, t time.Time) (Location, error) {
	if err := checkFinite("position", pos); err != nil {
		return Location{}, err
	}

	ecef := transform.ECIToECEF(transform.PositionECI{X: pos.X, Y: pos.Y, Z: pos.Z}, t)
	g := transform.ECEFToGeodetic(ecef)
	label, _ := c.gaz.Reverse(g.LatDeg, g.LonDeg)

	return Location{
		Latitude:    g.LatDeg,
		Longitude:   g.LonDeg,
		AltitudeKm:  g.AltKm,
		Geolocation: label,
	}, nil
}

// Sight computes look angles from a ground observer to the spacecraft
// state sampled at time t.
func (c *Converter) Sight(pos, vel oem.Vector3, t time.Time, obs transform.Observer) (Sighting, error) {
	if err := checkFinite("position", pos); err != nil {
		return Sighting{}, err
	}
	if err := checkFinite("velocity", vel); err != nil {
		return Sighting{}, err
	}

	p, v := transform.StateToECEF(
		transform.PositionECI{X: pos.X, Y: pos.Y, Z: pos.Z},
		transform.VelocityECI{X: vel.X, Y: vel.Y, Z: vel.Z},
		t,
	)
	la := obs.LookAnglesTo(p)

	return Sighting{
		AzimuthDeg:   la.AzimuthDeg,
		ElevationDeg: la.ElevationDeg,
		RangeKm:      la.RangeKm,
		RangeRateKmS: obs.RangeRateTo(p, v),
		Visible:      la.ElevationDeg > 0,
	}, nil
}

func checkFinite(what string, v oem.Vector3) error {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &ConversionError{
				Reason: fmt.Sprintf("non-finite %s component [%v, %v, %v]", what, v.X, v.Y, v.Z),
			}
		}
	}
	return nil
}
