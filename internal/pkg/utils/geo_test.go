package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// northOf returns a point the given number of meters due north of c.
func northOf(c Coordinate, meters float64) Coordinate {
	return Coordinate{
		Latitude:  c.Latitude + meters/EarthRadiusMeters*(180.0/math.Pi),
		Longitude: c.Longitude,
	}
}

func TestDistance_Identity(t *testing.T) {
	points := []Coordinate{
		{0, 0},
		{-6.2088, 106.8456},
		{90, 0},
		{-33.8688, 151.2093},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p, p))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	jakarta := Coordinate{-6.2088, 106.8456}
	bandung := Coordinate{-6.9175, 107.6191}

	ab := Distance(jakarta, bandung)
	ba := Distance(bandung, jakarta)

	assert.Equal(t, ab, ba)
	assert.InDelta(t, 116000, ab, 2000)
}

func TestDistance_NearAntipodal(t *testing.T) {
	a := Coordinate{0, 0}
	b := Coordinate{0, 179.9999999}

	d := Distance(a, b)

	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1)
}

func TestDistance_AlongMeridian(t *testing.T) {
	origin := Coordinate{-6.2, 106.8}
	assert.InDelta(t, 250.0, Distance(origin, northOf(origin, 250)), 1e-6)
}

func TestWithinAnyZone(t *testing.T) {
	center := Coordinate{-6.2088, 106.8456}
	zone := Zone{ID: "hq", Name: "HQ", Center: center, RadiusMeters: 100}

	cases := []struct {
		name    string
		point   Coordinate
		matched bool
	}{
		{"center", center, true},
		{"inside", northOf(center, 50), true},
		{"just outside", northOf(center, 100.5), false},
		{"far away", northOf(center, 5000), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := WithinAnyZone(c.point, []Zone{zone})
			assert.Equal(t, c.matched, got.Matched)
			assert.Equal(t, "hq", got.ZoneID)
		})
	}
}

func TestWithinAnyZone_NearestDistance(t *testing.T) {
	center := Coordinate{-6.2088, 106.8456}
	zones := []Zone{
		{ID: "near", Center: northOf(center, 300), RadiusMeters: 100},
		{ID: "far", Center: northOf(center, 2000), RadiusMeters: 500},
	}

	got := WithinAnyZone(center, zones)

	assert.False(t, got.Matched)
	assert.Equal(t, "near", got.ZoneID)
	assert.InDelta(t, 200, got.NearestDistance, 0.01)

	inside := WithinAnyZone(northOf(center, 300), zones)
	assert.True(t, inside.Matched)
	assert.InDelta(t, -100, inside.NearestDistance, 0.01)
}

func TestWithinAnyZone_NoZones(t *testing.T) {
	got := WithinAnyZone(Coordinate{1, 1}, nil)
	assert.False(t, got.Matched)
	assert.True(t, math.IsInf(got.NearestDistance, 1))
	assert.Empty(t, got.ZoneID)
}
