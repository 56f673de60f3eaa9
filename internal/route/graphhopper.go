package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rnltlabs/runicorn/internal/geo"
)

// DefaultBaseURL is the public GraphHopper routing endpoint.
const DefaultBaseURL = "https://graphhopper.com/api/1"

// ErrMissingAPIKey is returned before any request is made when the client has
// no credential. The pipeline treats it as fatal for the whole run.
var ErrMissingAPIKey = errors.New("graphhopper API key is missing")

// GraphHopperConfig configures the routing client. Zero values fall back to
// the defaults the exported tracks were calibrated against.
type GraphHopperConfig struct {
	APIKey  string
	BaseURL string
	Profile string // travel profile, e.g. "foot"
	Locale  string
	Timeout time.Duration
}

// GraphHopper calls the GraphHopper route API for batches of 2-5 waypoints.
type GraphHopper struct {
	client  *http.Client
	baseURL string
	apiKey  string
	profile string
	locale  string
}

// NewGraphHopper builds a client from cfg.
func NewGraphHopper(cfg GraphHopperConfig) *GraphHopper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = "foot"
	}
	if cfg.Locale == "" {
		cfg.Locale = "de"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GraphHopper{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
		locale:  cfg.Locale,
	}
}

type ghResponse struct {
	Message string `json:"message"`
	Paths   []struct {
		Distance float64 `json:"distance"`
		Ascend   float64 `json:"ascend"`
		Descend  float64 `json:"descend"`
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
	} `json:"paths"`
}

// Snap requests a snapped polyline through the given waypoints. The API
// returns GeoJSON (lon, lat) pairs; they are normalized to (lat, lon) here.
func (g *GraphHopper) Snap(ctx context.Context, waypoints []geo.Point) (Leg, error) {
	if g.apiKey == "" {
		return Leg{}, ErrMissingAPIKey
	}
	if len(waypoints) < 2 {
		return Leg{}, fmt.Errorf("need at least 2 waypoints, got %d", len(waypoints))
	}

	query := url.Values{}
	for _, p := range waypoints {
		query.Add("point", formatCoord(p.Lat)+","+formatCoord(p.Lon))
	}
	query.Set("profile", g.profile)
	query.Set("locale", g.locale)
	query.Set("points_encoded", "false")
	query.Set("key", g.apiKey)

	reqURL := g.baseURL + "/route?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Leg{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Leg{}, fmt.Errorf("graphhopper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Leg{}, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Leg{}, fmt.Errorf("graphhopper API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data ghResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Leg{}, fmt.Errorf("malformed graphhopper response: %w", err)
	}
	if len(data.Paths) == 0 {
		return Leg{}, fmt.Errorf("graphhopper returned no path: %s", data.Message)
	}

	path := data.Paths[0]
	leg := Leg{
		Points:   make([]geo.Point, 0, len(path.Points.Coordinates)),
		Distance: path.Distance,
		Ascend:   path.Ascend,
		Descend:  path.Descend,
	}
	for _, coord := range path.Points.Coordinates {
		if len(coord) < 2 {
			return Leg{}, fmt.Errorf("malformed coordinate pair %v", coord)
		}
		leg.Points = append(leg.Points, geo.Point{Lat: coord[1], Lon: coord[0]})
	}

	return leg, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
