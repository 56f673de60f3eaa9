// Package gpx serializes routed tracks as GPX 1.1 documents and reads drawn
// traces back in. The write path uses its own XML types because the exported
// bytes are a compatibility surface consumed by fitness upload flows.
package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rnltlabs/runicorn/internal/geo"
)

const (
	// Creator identifies exported files. Existing uploads depend on it, so it
	// is not configurable.
	Creator = "Runicorn"

	// TrackName is the metadata and track name written into every export.
	TrackName = "Runicorn Route"

	xmlns = "http://www.topografix.com/GPX/1/1"
)

// ErrEmptyRoute signals that there is nothing to export; no document is
// produced in that case.
var ErrEmptyRoute = errors.New("no route to export")

// TrackPoint is a single <trkpt> element.
type TrackPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

type trackSegment struct {
	Points []TrackPoint `xml:"trkpt"`
}

type track struct {
	Name     string         `xml:"name,omitempty"`
	Segments []trackSegment `xml:"trkseg"`
}

type metadata struct {
	Name string `xml:"name,omitempty"`
	Time string `xml:"time,omitempty"`
}

type document struct {
	XMLName  xml.Name `xml:"gpx"`
	Version  string   `xml:"version,attr"`
	Creator  string   `xml:"creator,attr"`
	XMLNS    string   `xml:"xmlns,attr"`
	Metadata metadata `xml:"metadata"`
	Tracks   []track  `xml:"trk"`
}

// Export writes route as a GPX 1.1 document with one track and one track
// segment, points in route order. The creation timestamp is recorded in UTC.
// An empty route returns ErrEmptyRoute and writes nothing.
func Export(w io.Writer, route []geo.Point, now time.Time) error {
	if len(route) == 0 {
		return ErrEmptyRoute
	}

	points := make([]TrackPoint, len(route))
	for i, p := range route {
		points[i] = TrackPoint{Lat: p.Lat, Lon: p.Lon}
	}

	doc := document{
		Version: "1.1",
		Creator: Creator,
		XMLNS:   xmlns,
		Metadata: metadata{
			Name: TrackName,
			Time: now.UTC().Format(time.RFC3339),
		},
		Tracks: []track{{
			Name:     TrackName,
			Segments: []trackSegment{{Points: points}},
		}},
	}

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}

	return nil
}

// ExportFilename suggests a download name embedding the current date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("runicorn-route-%s.gpx", now.UTC().Format("2006-01-02"))
}
