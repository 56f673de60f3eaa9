// Package simplify reduces dense freehand paths to a sparse set of shape
// points using the Ramer-Douglas-Peucker algorithm. Coordinates are treated
// as planar, which is a deliberate city-scale approximation.
package simplify

import "github.com/rnltlabs/runicorn/internal/geo"

// DefaultTolerance is roughly 5 meters at mid-latitudes, expressed in
// coordinate degrees. Calibrated against the GraphHopper free-tier limits.
const DefaultTolerance = 0.00005

// Path removes points whose perpendicular distance to the surrounding
// geometry is within tolerance. The result is a subsequence of the input and
// always keeps the first and last point. Inputs of two or fewer points are
// returned unchanged.
func Path(points []geo.Point, tolerance float64) []geo.Point {
	if len(points) <= 2 {
		return points
	}
	return douglasPeucker(points, tolerance)
}

func douglasPeucker(pts []geo.Point, epsilon float64) []geo.Point {
	maxDist := 0.0
	index := 0

	for i := 1; i < len(pts)-1; i++ {
		d := geo.PerpendicularDist(pts[i], pts[0], pts[len(pts)-1])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}

	if maxDist > epsilon {
		lefts := douglasPeucker(pts[:index+1], epsilon)
		rights := douglasPeucker(pts[index:], epsilon)
		// The split point ends both halves; drop its duplicate.
		return append(lefts, rights[1:]...)
	}

	return []geo.Point{pts[0], pts[len(pts)-1]}
}
