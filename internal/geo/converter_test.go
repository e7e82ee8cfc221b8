package geo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

var testTime = time.Date(2024, 2, 21, 12, 0, 0, 0, time.UTC)

// eciAbove builds an inertial position that converts to the given ground
// point at time t, by applying the inverse sidereal rotation to the
// Earth-fixed position.
func eciAbove(latDeg, lonDeg, altKm float64, t time.Time) oem.Vector3 {
	ecef := transform.NewObserver(latDeg, lonDeg, altKm).ECEF
	gmst := transform.GMST(t)
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	return oem.Vector3{
		X: ecef.X*cosG - ecef.Y*sinG,
		Y: ecef.X*sinG + ecef.Y*cosG,
		Z: ecef.Z,
	}
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	g, err := NewGazetteer(0)
	require.NoError(t, err)
	return NewConverter(g)
}

func TestLocateOverCity(t *testing.T) {
	conv := newTestConverter(t)

	pos := eciAbove(29.7604, -95.3698, 420.0, testTime)
	loc, err := conv.Locate(pos, testTime)
	require.NoError(t, err)

	require.InDelta(t, 29.7604, loc.Latitude, 1e-6)
	require.InDelta(t, -95.3698, loc.Longitude, 1e-6)
	require.InDelta(t, 420.0, loc.AltitudeKm, 1e-4)
	require.Equal(t, "Houston, Texas, United States", loc.Geolocation)
}

func TestLocateOverOcean(t *testing.T) {
	conv := newTestConverter(t)

	pos := eciAbove(0, 0, 420.0, testTime)
	loc, err := conv.Locate(pos, testTime)
	require.NoError(t, err)

	require.InDelta(t, 0, loc.Latitude, 1e-6)
	require.InDelta(t, 0, loc.Longitude, 1e-6)
	require.Equal(t, OverOcean, loc.Geolocation)
}

func TestLocateIdempotent(t *testing.T) {
	conv := newTestConverter(t)
	pos := oem.Vector3{X: -4945.2048, Y: 3625.0466, Z: 3944.0884}

	first, err := conv.Locate(pos, testTime)
	require.NoError(t, err)
	second, err := conv.Locate(pos, testTime)
	require.NoError(t, err)

	// Bit-for-bit identical: converting the same sample twice must not
	// drift or mutate anything.
	require.Equal(t, first, second)
}

func TestLocateAltitudeNotClamped(t *testing.T) {
	conv := newTestConverter(t)

	// A (physically absurd) subsurface sample still reports its real
	// negative altitude.
	pos := eciAbove(29.7604, -95.3698, -2.5, testTime)
	loc, err := conv.Locate(pos, testTime)
	require.NoError(t, err)
	require.InDelta(t, -2.5, loc.AltitudeKm, 1e-4)
}

func TestLocateNonFinite(t *testing.T) {
	conv := newTestConverter(t)

	bad := []oem.Vector3{
		{X: math.NaN(), Y: 3625.0466, Z: 3944.0884},
		{X: -4945.2048, Y: math.Inf(1), Z: 3944.0884},
		{X: -4945.2048, Y: 3625.0466, Z: math.Inf(-1)},
	}

	for _, pos := range bad {
		_, err := conv.Locate(pos, testTime)
		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
	}
}

func TestSightOverhead(t *testing.T) {
	conv := newTestConverter(t)
	obs := transform.NewObserver(29.7604, -95.3698, 0)

	pos := eciAbove(29.7604, -95.3698, 420.0, testTime)
	vel := oem.Vector3{X: 0, Y: 7.66, Z: 0}

	s, err := conv.Sight(pos, vel, testTime, obs)
	require.NoError(t, err)

	require.InDelta(t, 90.0, s.ElevationDeg, 0.01)
	require.InDelta(t, 420.0, s.RangeKm, 0.01)
	require.True(t, s.Visible)
}

func TestSightFarSideNotVisible(t *testing.T) {
	conv := newTestConverter(t)
	obs := transform.NewObserver(29.7604, -95.3698, 0)

	// Above the antipode of the observer.
	pos := eciAbove(-29.7604, 84.6302, 420.0, testTime)
	s, err := conv.Sight(pos, oem.Vector3{Y: 7.66}, testTime, obs)
	require.NoError(t, err)

	require.False(t, s.Visible)
	require.Less(t, s.ElevationDeg, -45.0)
}

func TestSightNonFinite(t *testing.T) {
	conv := newTestConverter(t)
	obs := transform.NewObserver(29.7604, -95.3698, 0)

	_, err := conv.Sight(oem.Vector3{X: math.NaN()}, oem.Vector3{}, testTime, obs)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)

	_, err = conv.Sight(oem.Vector3{X: 6778}, oem.Vector3{Y: math.Inf(1)}, testTime, obs)
	require.ErrorAs(t, err, &ce)
}
