package transform

import "math"

// WGS-84 ellipsoid parameters, in km.
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Geodetic is a position relative to the WGS-84 ellipsoid. Longitude is
// in (-180, 180], altitude in km above the ellipsoid (negative below it;
// no clamping is applied).
type Geodetic struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// ECEFToGeodetic converts an Earth-fixed position (km) to geodetic
// coordinates using the iterative Bowring method. Converges in 2-3
// iterations for Earth orbits; 5 are run for margin.
func ECEFToGeodetic(pos PositionECEF) Geodetic {
	lon := math.Atan2(pos.Y, pos.X)

	p := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)

	// Initial estimate.
	lat := math.Atan2(pos.Z, p*(1-wgs84E2))

	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(pos.Z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		// Near the poles p vanishes; fall back to the polar axis.
		alt = math.Abs(pos.Z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltKm:  alt,
	}
}

// Observer is a ground position with its ECEF coordinates precomputed
// once, so repeated sighting calculations do not redo the forward
// geodetic conversion.
type Observer struct {
	LatRad float64
	LonRad float64
	AltKm  float64
	ECEF   PositionECEF
}

// NewObserver creates an Observer from geodetic coordinates. Latitude and
// longitude are in degrees, altitude in km above the WGS-84 ellipsoid.
func NewObserver(latDeg, lonDeg, altKm float64) Observer {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Observer{
		LatRad: lat,
		LonRad: lon,
		AltKm:  altKm,
		ECEF: PositionECEF{
			X: (N + altKm) * cosLat * math.Cos(lon),
			Y: (N + altKm) * cosLat * math.Sin(lon),
			Z: (N*(1-wgs84E2) + altKm) * sinLat,
		},
	}
}

// LookAngles holds azimuth, elevation, and range from an observer to a
// spacecraft. Azimuth is measured clockwise from North; elevation is 0 at
// the horizon and 90 at zenith.
type LookAngles struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
}

// LookAnglesTo computes look angles from the observer to an Earth-fixed
// position, using the SEZ (South-East-Zenith) topocentric rotation per
// Vallado Section 4.4.
func (o Observer) LookAnglesTo(pos PositionECEF) LookAngles {
	rx := pos.X - o.ECEF.X
	ry := pos.Y - o.ECEF.Y
	rz := pos.Z - o.ECEF.Z

	sinLat := math.Sin(o.LatRad)
	cosLat := math.Cos(o.LatRad)
	sinLon := math.Sin(o.LonRad)
	cosLon := math.Cos(o.LonRad)

	// Rotate the ECEF range vector to SEZ.
	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)

	el := math.Asin(zenith / rangeKm)

	// In SEZ, North is the -South direction, so az = atan2(east, -south).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeKm,
	}
}

// RangeRateTo computes the rate of change of the observer-to-spacecraft
// range in km/s. The observer is static in the rotating frame, so the
// rate is the velocity component along the line of sight; negative means
// approaching.
func (o Observer) RangeRateTo(pos PositionECEF, vel VelocityECEF) float64 {
	rx := pos.X - o.ECEF.X
	ry := pos.Y - o.ECEF.Y
	rz := pos.Z - o.ECEF.Z

	r := math.Sqrt(rx*rx + ry*ry + rz*rz)
	if r == 0 {
		return 0
	}
	return (rx*vel.X + ry*vel.Y + rz*vel.Z) / r
}
