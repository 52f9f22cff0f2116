// Package geo holds the spherical-earth helpers used by zones and rules.
package geo

import "math"

// EarthRadiusKm is the mean radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether p is a finite coordinate inside the lat/lon ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Normalize clamps latitude to [-90, 90] and wraps longitude into [-180, 180].
func (p Point) Normalize() Point {
	lat := math.Max(-90, math.Min(90, p.Lat))
	lon := math.Mod(p.Lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	lon -= 180
	if lon == -180 && p.Lon > 0 {
		lon = 180
	}
	return Point{Lat: lat, Lon: lon}
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Centroid is the arithmetic mean of the vertices. It is not the area
// centroid; callers rely on this exact definition for proximity checks.
// An empty slice yields the zero Point.
func Centroid(vertices []Point) Point {
	if len(vertices) == 0 {
		return Point{}
	}
	var lat, lon float64
	for _, v := range vertices {
		lat += v.Lat
		lon += v.Lon
	}
	n := float64(len(vertices))
	return Point{Lat: lat / n, Lon: lon / n}
}

// BearingDeg returns the initial bearing from a to b in [0, 360).
func BearingDeg(a, b Point) float64 {
	φ1, φ2 := toRad(a.Lat), toRad(b.Lat)
	Δλ := toRad(b.Lon - a.Lon)
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}
