package route

import "github.com/rnltlabs/runicorn/internal/geo"

// deviationOutlierM marks an input waypoint as badly matched when the
// assembled route never comes closer than this, in meters.
const deviationOutlierM = 50

// sharpTurnDeg is the direction change between consecutive route steps above
// which a turn counts as sharp.
const sharpTurnDeg = 90

// diagnostics summarizes how well the assembled route tracks the drawn input.
type diagnostics struct {
	avgDeviationM float64
	maxDeviationM float64
	outliers      int
	sharpTurns    int
	sharpestDeg   float64
}

// diagnose measures, for every input waypoint, the distance to the nearest
// route point, and counts sharp direction changes along the route itself.
func diagnose(input, route []geo.Point) diagnostics {
	var d diagnostics
	if len(input) == 0 || len(route) == 0 {
		return d
	}

	var sum float64
	for _, p := range input {
		nearest := geo.Haversine(p, route[0])
		for _, r := range route[1:] {
			if dist := geo.Haversine(p, r); dist < nearest {
				nearest = dist
			}
		}

		sum += nearest
		if nearest > d.maxDeviationM {
			d.maxDeviationM = nearest
		}
		if nearest > deviationOutlierM {
			d.outliers++
		}
	}
	d.avgDeviationM = sum / float64(len(input))

	for i := 1; i < len(route)-1; i++ {
		before := geo.Bearing(route[i-1], route[i])
		after := geo.Bearing(route[i], route[i+1])

		change := before - after
		if change < 0 {
			change = -change
		}
		if change > 180 {
			change = 360 - change
		}

		if change > sharpTurnDeg {
			d.sharpTurns++
			if change > d.sharpestDeg {
				d.sharpestDeg = change
			}
		}
	}

	return d
}
