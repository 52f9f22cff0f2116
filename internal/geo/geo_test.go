package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	nairobi := Point{Lat: -1.2921, Lon: 36.8219}
	mombasa := Point{Lat: -4.0435, Lon: 39.6682}

	assert.InDelta(t, 0, HaversineKm(nairobi, nairobi), 1e-9)
	assert.InDelta(t, 440, HaversineKm(nairobi, mombasa), 5)
	assert.InDelta(t, HaversineKm(nairobi, mombasa), HaversineKm(mombasa, nairobi), 1e-9)

	// one degree of latitude on the reference sphere
	assert.InDelta(t, 2*math.Pi*EarthRadiusKm/360, HaversineKm(Point{}, Point{Lat: 1}), 1e-6)
}

func TestCentroid(t *testing.T) {
	square := []Point{
		{Lat: -1.2900, Lon: 36.8200},
		{Lat: -1.2900, Lon: 36.8250},
		{Lat: -1.2950, Lon: 36.8250},
		{Lat: -1.2950, Lon: 36.8200},
	}
	c := Centroid(square)
	assert.InDelta(t, -1.2925, c.Lat, 1e-9)
	assert.InDelta(t, 36.8225, c.Lon, 1e-9)
	assert.Equal(t, Point{}, Centroid(nil))
}

func TestNormalizeAndValid(t *testing.T) {
	assert.True(t, Point{Lat: -1.29, Lon: 36.82}.Valid())
	assert.False(t, Point{Lat: 91}.Valid())
	assert.False(t, Point{Lat: math.NaN()}.Valid())

	p := Point{Lat: 95, Lon: 190}.Normalize()
	assert.Equal(t, 90.0, p.Lat)
	assert.InDelta(t, -170, p.Lon, 1e-9)
	assert.True(t, p.Valid())

	assert.InDelta(t, 180, Point{Lon: 180}.Normalize().Lon, 1e-9)
	assert.InDelta(t, -180, Point{Lon: -180}.Normalize().Lon, 1e-9)
}

func TestBearingDeg(t *testing.T) {
	o := Point{}
	assert.InDelta(t, 0, BearingDeg(o, Point{Lat: 1}), 1e-9)
	assert.InDelta(t, 90, BearingDeg(o, Point{Lon: 1}), 1e-9)
	assert.InDelta(t, 180, BearingDeg(o, Point{Lat: -1}), 1e-9)
	assert.InDelta(t, 270, BearingDeg(o, Point{Lon: -1}), 1e-9)
}
