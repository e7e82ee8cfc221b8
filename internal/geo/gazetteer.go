package geo

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sheikhmt/taha-iss-tracker/internal/metrics"
)

//go:embed places.csv
var placesCSV []byte

// OverOcean is the label reported when no known place lies within the
// search radius of a ground point.
const OverOcean = "over ocean"

// DefaultRadiusKm is the search radius used when none is configured.
// The ISS covers ~430 km of ground track per minute, so a 300 km radius
// keeps labels from flickering between distant places.
const DefaultRadiusKm = 300.0

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Place is one entry of the embedded reverse-geocoding table.
type Place struct {
	Name    string
	Admin   string
	Country string
	Lat     float64
	Lon     float64
}

// Label renders the place as "Name, Admin, Country", dropping empty parts.
func (p Place) Label() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Admin, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Gazetteer answers nearest-place queries from a fixed in-memory table.
// It is read-only after construction and safe for concurrent use.
type Gazetteer struct {
	places   []Place
	radiusKm float64
}

// NewGazetteer builds a Gazetteer from the embedded place table.
// radiusKm <= 0 selects DefaultRadiusKm.
func NewGazetteer(radiusKm float64) (*Gazetteer, error) {
	return LoadGazetteer(bytes.NewReader(placesCSV), radiusKm)
}

// LoadGazetteer reads a place table in CSV form: a name,admin,country,lat,lon
// header followed by one row per place. Text fields are normalized to NFC
// so labels compare equal regardless of how the source file was encoded.
func LoadGazetteer(r io.Reader, radiusKm float64) (*Gazetteer, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading place table: %w", err)
	}
	if len(records) == 0 || records[0][0] != "name" {
		return nil, fmt.Errorf("place table missing header row")
	}

	places := make([]Place, 0, len(records)-1)
	for _, rec := range records[1:] {
		name := norm.NFC.String(strings.TrimSpace(rec[0]))
		if name == "" {
			return nil, fmt.Errorf("place table row with empty name")
		}
		lat, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("place %s: invalid latitude %q", name, rec[3])
		}
		lon, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("place %s: invalid longitude %q", name, rec[4])
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("place %s: coordinates out of range (%f, %f)", name, lat, lon)
		}
		places = append(places, Place{
			Name:    name,
			Admin:   norm.NFC.String(strings.TrimSpace(rec[1])),
			Country: norm.NFC.String(strings.TrimSpace(rec[2])),
			Lat:     lat,
			Lon:     lon,
		})
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("place table contains no places")
	}

	return &Gazetteer{places: places, radiusKm: radiusKm}, nil
}

// Size returns the number of places in the table.
func (g *Gazetteer) Size() int {
	return len(g.places)
}

// RadiusKm returns the configured search radius.
func (g *Gazetteer) RadiusKm() float64 {
	return g.radiusKm
}

// Nearest returns the closest place to the given coordinates and its
// great-circle distance in km, with no radius cutoff applied.
func (g *Gazetteer) Nearest(latDeg, lonDeg float64) (Place, float64) {
	best := 0
	bestKm := haversineKm(latDeg, lonDeg, g.places[0].Lat, g.places[0].Lon)
	for i := 1; i < len(g.places); i++ {
		d := haversineKm(latDeg, lonDeg, g.places[i].Lat, g.places[i].Lon)
		if d < bestKm {
			best = i
			bestKm = d
		}
	}
	return g.places[best], bestKm
}

// Reverse returns the label of the nearest place within the search
// radius. Points with no place in range report OverOcean and false.
func (g *Gazetteer) Reverse(latDeg, lonDeg float64) (string, bool) {
	place, dist := g.Nearest(latDeg, lonDeg)
	if dist > g.radiusKm {
		metrics.IncGeocoderLookup("miss")
		return OverOcean, false
	}
	metrics.IncGeocoderLookup("hit")
	return place.Label(), true
}

// haversineKm computes the great-circle distance between two points
// given in degrees. Longitude wraparound at the antimeridian is handled
// by the trigonometry itself.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180.0

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}
