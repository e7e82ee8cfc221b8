// Package transform provides coordinate frame conversions for spacecraft
// ephemeris data.
//
// The primary transform is ECI (Earth-centered inertial, J2000/EME2000 as
// delivered by the NASA OEM feed) to ECEF (Earth-centered Earth-fixed),
// which is what geodetic latitude and longitude are defined against.
//
// Method: single-axis rotation about Z by GMST, per Vallado Ch. 3. This
// ignores precession, nutation and polar motion, which accumulates to a
// few tenths of a degree of longitude relative to a full IAU chain. For
// ground-track display and which-place-is-it-over labeling that error is
// well under the resolution of the answer.
package transform

import (
	"math"
	"time"
)

// PositionECI is an inertial-frame position in km.
type PositionECI struct {
	X, Y, Z float64
}

// VelocityECI is an inertial-frame velocity in km/s.
type VelocityECI struct {
	X, Y, Z float64
}

// PositionECEF is an Earth-fixed position in km.
type PositionECEF struct {
	X, Y, Z float64
}

// VelocityECEF is an Earth-fixed velocity in km/s, i.e. the velocity an
// observer rotating with the Earth would measure.
type VelocityECEF struct {
	X, Y, Z float64
}

// ECIToECEF rotates an inertial position into the Earth-fixed frame at
// the given UTC time.
func ECIToECEF(eci PositionECI, t time.Time) PositionECEF {
	return ECIToECEFWithGMST(eci, GMST(t))
}

// ECIToECEFWithGMST rotates an inertial position using a precomputed GMST
// angle in radians. Useful when converting many samples that share a
// sidereal angle, or when the caller also needs the velocity transform.
//
//	r_ECEF = R3(θ) * r_ECI
func ECIToECEFWithGMST(eci PositionECI, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	return PositionECEF{
		X: eci.X*cosG + eci.Y*sinG,
		Y: -eci.X*sinG + eci.Y*cosG,
		Z: eci.Z,
	}
}

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// VelocityToECEFWithGMST rotates an inertial velocity into the Earth-fixed
// frame. ecef must be the already-rotated position of the same sample.
//
//	v_ECEF = R3(θ) * v_ECI - ω × r_ECEF
//
// where ω = [0, 0, OmegaEarth]. The cross product removes the apparent
// motion contributed by Earth rotation itself.
func VelocityToECEFWithGMST(vel VelocityECI, ecef PositionECEF, gmst float64) VelocityECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	vxRot := vel.X*cosG + vel.Y*sinG
	vyRot := -vel.X*sinG + vel.Y*cosG

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	return VelocityECEF{
		X: vxRot + OmegaEarth*ecef.Y,
		Y: vyRot - OmegaEarth*ecef.X,
		Z: vel.Z,
	}
}

// StateToECEF rotates an inertial position/velocity pair into the
// Earth-fixed frame at the given UTC time.
func StateToECEF(pos PositionECI, vel VelocityECI, t time.Time) (PositionECEF, VelocityECEF) {
	gmst := GMST(t)
	p := ECIToECEFWithGMST(pos, gmst)
	v := VelocityToECEFWithGMST(vel, p, gmst)
	return p, v
}
