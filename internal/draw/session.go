// Package draw models the in-memory state of a freehand route drawing: an
// ordered list of stroke segments plus the active tool mode. Mutations swap
// the whole segment list rather than editing in place.
package draw

import "github.com/rnltlabs/runicorn/internal/geo"

// Mode is the active drawing tool.
type Mode string

const (
	ModeDraw  Mode = "draw"
	ModeErase Mode = "erase"
	ModePan   Mode = "pan"
)

// Valid reports whether m is a known tool mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDraw, ModeErase, ModePan:
		return true
	}
	return false
}

// Session holds one user's drawing. A session always contains at least one
// segment, possibly empty.
type Session struct {
	segments [][]geo.Point
	mode     Mode
	active   bool
}

// NewSession returns an inactive session with a single empty segment.
func NewSession() *Session {
	return &Session{
		segments: [][]geo.Point{{}},
		mode:     ModeDraw,
	}
}

// Begin resets the session to a single empty segment and activates drawing.
func (s *Session) Begin() {
	s.segments = [][]geo.Point{{}}
	s.mode = ModeDraw
	s.active = true
}

// Active reports whether drawing is in progress.
func (s *Session) Active() bool { return s.active }

// Mode returns the active tool mode.
func (s *Session) Mode() Mode { return s.mode }

// SetMode switches the active tool. Switching from eraser back to draw starts
// a new trailing segment so resumed drawing never reconnects to geometry that
// survived an erase.
func (s *Session) SetMode(mode Mode) {
	previous := s.mode
	s.mode = mode

	if previous == ModeErase && mode == ModeDraw {
		s.segments = append(s.segments, []geo.Point{})
	}
}

// Append adds a point to the last segment.
func (s *Session) Append(p geo.Point) {
	last := len(s.segments) - 1
	s.segments[last] = append(s.segments[last], p)
}

// Erase drops every point within radius (planar degree units) of center.
// Surviving runs of points become their own segments, so erasing a hole in
// the middle of a stroke splits it in two. If nothing survives, one empty
// segment is reinstated.
func (s *Session) Erase(center geo.Point, radius float64) {
	var next [][]geo.Point

	for _, segment := range s.segments {
		var run []geo.Point

		for _, p := range segment {
			if geo.PlanarDist(p, center) > radius {
				run = append(run, p)
				continue
			}
			// Erased point breaks the stroke
			if len(run) > 0 {
				next = append(next, run)
				run = nil
			}
		}

		if len(run) > 0 {
			next = append(next, run)
		}
	}

	if len(next) == 0 {
		next = append(next, []geo.Point{})
	}

	s.segments = next
}

// Cancel discards the drawing and deactivates the session.
func (s *Session) Cancel() {
	s.segments = [][]geo.Point{{}}
	s.mode = ModeDraw
	s.active = false
}

// Confirm deactivates the session and returns all drawn points flattened into
// one sequence in segment order. Erase breaks are not preserved; the result
// is the routing pipeline's input.
func (s *Session) Confirm() []geo.Point {
	s.active = false
	s.mode = ModeDraw

	var flat []geo.Point
	for _, segment := range s.segments {
		flat = append(flat, segment...)
	}
	return flat
}

// Segments returns a copy of the current segment list for rendering.
func (s *Session) Segments() [][]geo.Point {
	out := make([][]geo.Point, len(s.segments))
	for i, segment := range s.segments {
		out[i] = append([]geo.Point(nil), segment...)
	}
	return out
}
