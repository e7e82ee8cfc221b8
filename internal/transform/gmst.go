package transform

import (
	"math"
	"time"
)

// jdJ2000 is the Julian Date of the J2000.0 reference epoch.
const jdJ2000 = 2451545.0

// JulianDate returns the Julian Date for a UTC instant.
//
// The integer day number comes from the Fliegel-Van Flandern algorithm,
// exact for any Gregorian calendar date; the fraction is rebuilt from the
// clock fields so sub-second epochs survive.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y, month, d := t.Date()
	m := int(month)

	// Integer division truncates toward zero here, matching the original
	// FORTRAN formulation. a is -1 for January/February, 0 otherwise.
	a := (m - 14) / 12
	jdn := (1461*(y+4800+a))/4 +
		(367*(m-2-12*a))/12 -
		(3*((y+4900+a)/100))/4 +
		d - 32075

	clock := float64(t.Hour()*3600+t.Minute()*60+t.Second()) +
		float64(t.Nanosecond())/1e9

	// The day number counts from noon; back up half a day to midnight
	// before adding the clock fraction.
	return float64(jdn) - 0.5 + clock/86400.0
}

// GMST returns Greenwich Mean Sidereal Time in radians, normalized to
// [0, 2π), for a UTC instant.
//
// IAU-82 model (Vallado Eq 3-47): a cubic in Julian centuries of UT1 from
// J2000.0, evaluated in seconds of time. UT1 is approximated by UTC, which
// costs under a second of sidereal time (|DUT1| < 0.9s).
func GMST(t time.Time) float64 {
	tc := (JulianDate(t) - jdJ2000) / 36525.0

	// Linear coefficient is 876600 hours plus the sidereal catch-up term,
	// both in seconds of time.
	sec := 67310.54841 + tc*(3164400184.812866+tc*(0.093104+tc*(-6.2e-6)))

	// 86400 seconds of time per revolution, so π/43200 radians per second.
	rad := math.Mod(sec*(math.Pi/43200.0), 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
