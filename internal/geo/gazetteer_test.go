package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestNewGazetteerEmbeddedTable(t *testing.T) {
	g, err := NewGazetteer(0)
	require.NoError(t, err)
	require.Greater(t, g.Size(), 150)
	require.Equal(t, DefaultRadiusKm, g.RadiusKm())
}

func TestReverseHit(t *testing.T) {
	g, err := NewGazetteer(0)
	require.NoError(t, err)

	label, ok := g.Reverse(29.76, -95.37)
	require.True(t, ok)
	require.Equal(t, "Houston, Texas, United States", label)

	// Admin-less entries keep a two-part label.
	label, ok = g.Reverse(35.68, 139.65)
	require.True(t, ok)
	require.Equal(t, "Tokyo, Japan", label)
}

func TestReverseOcean(t *testing.T) {
	g, err := NewGazetteer(0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{name: "null island", lat: 0, lon: 0},
		{name: "south pacific point nemo", lat: -48.9, lon: -123.4},
		{name: "mid atlantic", lat: 25.0, lon: -45.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := g.Reverse(tt.lat, tt.lon)
			require.False(t, ok)
			require.Equal(t, OverOcean, label)
		})
	}
}

func TestReverseAcrossAntimeridian(t *testing.T) {
	g, err := NewGazetteer(0)
	require.NoError(t, err)

	// Suva sits at longitude +178.44; a point at -179.8 is ~180 km away
	// across the antimeridian, not most of the way around the planet.
	label, ok := g.Reverse(-18.0, -179.8)
	require.True(t, ok)
	require.Equal(t, "Suva, Fiji", label)
}

func TestNearestNoCutoff(t *testing.T) {
	g, err := NewGazetteer(0)
	require.NoError(t, err)

	// Null island is outside every radius, but the nearest place is
	// still reported with its distance.
	place, dist := g.Nearest(0, 0)
	require.Equal(t, "Accra", place.Name)
	require.InDelta(t, 625, dist, 25)
}

func TestRadiusCutoff(t *testing.T) {
	// A 10 km radius turns a comfortable hit into a miss.
	tight, err := NewGazetteer(10)
	require.NoError(t, err)

	_, ok := tight.Reverse(30.5, -95.37) // ~80 km north of Houston
	require.False(t, ok)

	wide, err := NewGazetteer(300)
	require.NoError(t, err)
	label, ok := wide.Reverse(30.5, -95.37)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(label, "Houston"))
}

func TestPlaceLabel(t *testing.T) {
	full := Place{Name: "Houston", Admin: "Texas", Country: "United States"}
	require.Equal(t, "Houston, Texas, United States", full.Label())

	noAdmin := Place{Name: "Singapore", Country: "Singapore"}
	require.Equal(t, "Singapore, Singapore", noAdmin.Label())

	bare := Place{Name: "Atlantis"}
	require.Equal(t, "Atlantis", bare.Label())
}

func TestLoadGazetteerNormalizesNFC(t *testing.T) {
	// "Bogota" followed by a combining acute accent (NFD form).
	decomposed := "Bogotá"
	require.NotEqual(t, "Bogotá", decomposed)

	table := "name,admin,country,lat,lon\n" + decomposed + ",,Colombia,4.7110,-74.0721\n"
	g, err := LoadGazetteer(strings.NewReader(table), 0)
	require.NoError(t, err)

	label, ok := g.Reverse(4.71, -74.07)
	require.True(t, ok)
	require.Equal(t, "Bogotá, Colombia", label)
}

func TestEmbeddedTableIsNFC(t *testing.T) {
	g, err := NewGazetteer(0)
	require.NoError(t, err)

	for _, p := range g.places {
		require.True(t, norm.NFC.IsNormalString(p.Name), "name %q not NFC", p.Name)
		require.True(t, norm.NFC.IsNormalString(p.Admin), "admin %q not NFC", p.Admin)
		require.True(t, norm.NFC.IsNormalString(p.Country), "country %q not NFC", p.Country)
	}
}

func TestLoadGazetteerErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{name: "empty", table: ""},
		{name: "missing header", table: "Houston,Texas,United States,29.7604,-95.3698\n"},
		{name: "wrong column count", table: "name,admin,country,lat,lon\nHouston,Texas,29.7604,-95.3698\n"},
		{name: "bad latitude", table: "name,admin,country,lat,lon\nHouston,Texas,United States,north,-95.3698\n"},
		{name: "latitude out of range", table: "name,admin,country,lat,lon\nHouston,Texas,United States,95.0,-95.3698\n"},
		{name: "longitude out of range", table: "name,admin,country,lat,lon\nHouston,Texas,United States,29.7604,-200.0\n"},
		{name: "empty name", table: "name,admin,country,lat,lon\n,Texas,United States,29.7604,-95.3698\n"},
		{name: "header only", table: "name,admin,country,lat,lon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGazetteer(strings.NewReader(tt.table), 0)
			require.Error(t, err)
		})
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	// London to Paris is ~344 km.
	require.InDelta(t, 344, haversineKm(51.5074, -0.1278, 48.8566, 2.3522), 10)

	// Same point is zero.
	require.Zero(t, haversineKm(29.7604, -95.3698, 29.7604, -95.3698))

	// Antipodal points approach half the circumference (~20015 km).
	require.InDelta(t, 20015, haversineKm(0, 0, 0, 180), 10)
}
