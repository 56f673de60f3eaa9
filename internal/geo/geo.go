package geo

import "math"

const earthRadius = 6371000 // meters

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Haversine calculates the great-circle distance between two points in meters.
func Haversine(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}

// Bearing computes the initial bearing from a to b in degrees [0, 360).
func Bearing(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLonRad := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(deltaLonRad) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLonRad)

	bearingDeg := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(bearingDeg+360, 360)
}

// PlanarDist treats (lat, lon) as planar coordinates and returns the Euclidean
// distance between two points in degree units. Only valid at city scale.
func PlanarDist(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// PerpendicularDist returns the planar distance in degree units from p to the
// straight line through s and e. When s and e coincide the line is degenerate
// and the point-to-point distance is returned instead.
func PerpendicularDist(p, s, e Point) float64 {
	dLat := e.Lat - s.Lat
	dLon := e.Lon - s.Lon

	if dLat == 0 && dLon == 0 {
		return PlanarDist(p, s)
	}

	numerator := math.Abs(dLon*p.Lat - dLat*p.Lon + e.Lat*s.Lon - e.Lon*s.Lat)
	denominator := math.Sqrt(dLat*dLat + dLon*dLon)
	return numerator / denominator
}
