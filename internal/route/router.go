// Package route turns a confirmed freehand drawing into a road-snapped GPS
// track: simplify, batch against the routing service's per-request waypoint
// ceiling, stitch the per-batch polylines and aggregate the statistics.
package route

import (
	"context"
	"fmt"
	"time"

	"github.com/rnltlabs/runicorn/internal/geo"
)

// Leg is one batch's snapped sub-route as returned by the routing service,
// coordinates already normalized to (lat, lon) order.
type Leg struct {
	Points   []geo.Point
	Distance float64 // meters
	Ascend   float64 // meters
	Descend  float64 // meters
}

// Router snaps an ordered list of waypoints onto traversable paths.
// Implementations report rate limiting through *RateLimitError and a missing
// credential through ErrMissingAPIKey.
type Router interface {
	Snap(ctx context.Context, waypoints []geo.Point) (Leg, error)
}

// RateLimitError signals that the routing service asked us to slow down.
// RetryAfter is the service's suggested wait, zero when it gave none.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Stats is the aggregate summary of an assembled route.
type Stats struct {
	Distance float64 `json:"distance"` // meters
	Ascend   float64 `json:"ascend"`   // meters
	Descend  float64 `json:"descend"`  // meters
}

// Result is the outcome of a pipeline run. FailedBatches counts batches that
// were abandoned after exhausting retries; their points are simply missing
// from Route.
type Result struct {
	Route         []geo.Point `json:"route"`
	Stats         Stats       `json:"stats"`
	FailedBatches int         `json:"failedBatches"`
}

// ProgressFunc is invoked after each batch resolves, successfully or not.
// completed is monotonically non-decreasing and reaches total when every
// batch was issued.
type ProgressFunc func(completed, total int)
