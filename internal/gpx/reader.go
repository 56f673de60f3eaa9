package gpx

import (
	"fmt"
	"io"
	"os"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/rnltlabs/runicorn/internal/geo"
)

// ReadTrack parses a GPX document and returns all track points flattened in
// track/segment order. Elevation and timestamps are ignored; a drawn trace
// carries neither.
func ReadTrack(r io.Reader) ([]geo.Point, error) {
	doc, err := gpxgo.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	var points []geo.Point
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				points = append(points, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
			}
		}
	}

	return points, nil
}

// ReadTrackFile is ReadTrack for a file on disk.
func ReadTrackFile(filename string) ([]geo.Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadTrack(file)
}
