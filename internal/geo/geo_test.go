package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	a := Point{Lat: 46.0, Lon: 7.0}
	b := Point{Lat: 46.001, Lon: 7.001}

	dist := Haversine(a, b)

	// Should be approximately 140 meters
	expected := 140.0
	tolerance := 10.0

	if dist < expected-tolerance || dist > expected+tolerance {
		t.Errorf("Expected distance ~%.0fm, got %.0fm", expected, dist)
	}
}

func TestHaversineSamePoint(t *testing.T) {
	p := Point{Lat: 52.52, Lon: 13.405}
	if dist := Haversine(p, p); dist != 0 {
		t.Errorf("Distance between identical points should be 0, got %f", dist)
	}
}

func TestBearing(t *testing.T) {
	cases := []struct {
		name     string
		from, to Point
		want     float64
	}{
		{"due north", Point{46.0, 7.0}, Point{46.1, 7.0}, 0},
		{"due east", Point{0, 7.0}, Point{0, 7.1}, 90},
		{"due south", Point{46.1, 7.0}, Point{46.0, 7.0}, 180},
		{"due west", Point{0, 7.1}, Point{0, 7.0}, 270},
	}

	for _, c := range cases {
		got := Bearing(c.from, c.to)
		if math.Abs(got-c.want) > 0.5 {
			t.Errorf("%s: Bearing = %.1f°, want %.1f°", c.name, got, c.want)
		}
	}
}

func TestPerpendicularDist(t *testing.T) {
	s := Point{Lat: 0, Lon: 0}
	e := Point{Lat: 0, Lon: 2}

	// Point one degree above the middle of the baseline
	d := PerpendicularDist(Point{Lat: 1, Lon: 1}, s, e)
	if math.Abs(d-1) > 1e-12 {
		t.Errorf("Perpendicular distance = %v, want 1", d)
	}

	// Point on the line itself
	d = PerpendicularDist(Point{Lat: 0, Lon: 1.5}, s, e)
	if d > 1e-12 {
		t.Errorf("Point on line should have distance 0, got %v", d)
	}
}

func TestPerpendicularDistDegenerateLine(t *testing.T) {
	// Coincident endpoints fall back to point-to-point distance
	s := Point{Lat: 1, Lon: 1}
	d := PerpendicularDist(Point{Lat: 4, Lon: 5}, s, s)
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("Degenerate line distance = %v, want 5", d)
	}
}

func TestPlanarDist(t *testing.T) {
	d := PlanarDist(Point{Lat: 0, Lon: 0}, Point{Lat: 3, Lon: 4})
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("PlanarDist = %v, want 5", d)
	}
}
