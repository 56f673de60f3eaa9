package route

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rnltlabs/runicorn/internal/geo"
	"github.com/rnltlabs/runicorn/internal/simplify"
)

// Options tune the pipeline. The defaults are tied to the routing service's
// free-tier limits; changing them changes which tracks come out, so existing
// behavior depends on these exact values.
type Options struct {
	// Tolerance for the pre-routing simplification pass, in coordinate
	// degrees.
	Tolerance float64

	// BatchSize is the per-request waypoint ceiling of the routing service.
	// Consecutive batches overlap by one point, so the effective step is
	// BatchSize-1.
	BatchSize int

	// MaxAttempts bounds how often a single batch is tried before it is
	// abandoned.
	MaxAttempts int

	// BackoffBase is the first rate-limit wait when the service suggests
	// none; it doubles per attempt.
	BackoffBase time.Duration

	// BatchDelay is inserted after every batch except the last to stay under
	// the request-rate ceiling.
	BatchDelay time.Duration
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		Tolerance:   simplify.DefaultTolerance,
		BatchSize:   5,
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
		BatchDelay:  1500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = def.Tolerance
	}
	if o.BatchSize < 2 {
		o.BatchSize = def.BatchSize
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = def.MaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = def.BackoffBase
	}
	if o.BatchDelay < 0 {
		o.BatchDelay = def.BatchDelay
	}
	return o
}

// Pipeline orchestrates simplify -> batch -> snap -> stitch. Batches run
// strictly sequentially; concurrent calls would blow the API's rate budget
// and complicate stitching order.
type Pipeline struct {
	router Router
	opts   Options
	log    *zap.Logger

	// replaceable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a pipeline around router. Zero-valued opts fields fall back to
// DefaultOptions; a nil logger is replaced with a no-op one.
func New(router Router, opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		router: router,
		opts:   opts.withDefaults(),
		log:    log,
		sleep:  sleepCtx,
	}
}

// Route snaps the drawn points to real-world paths. It never returns an
// error: every failure mode degrades to the best available result. A missing
// credential aborts immediately with the unmodified input and zero stats;
// abandoned batches are omitted from the assembled route; cancellation stops
// issuing requests between batches and returns the partial result.
func (p *Pipeline) Route(ctx context.Context, points []geo.Point, onProgress ProgressFunc) Result {
	if len(points) < 2 {
		return Result{Route: points}
	}

	simplified := simplify.Path(points, p.opts.Tolerance)
	p.log.Info("simplified drawn path",
		zap.Int("before", len(points)),
		zap.Int("after", len(simplified)),
		zap.Float64("tolerance", p.opts.Tolerance),
	)

	step := p.opts.BatchSize - 1
	total := (len(simplified)-2)/step + 1 // ceil((n-1)/step)

	var (
		route     []geo.Point
		stats     Stats
		completed int
		failed    int
	)

	for start := 0; start < len(simplified)-1; start += step {
		if ctx.Err() != nil {
			p.log.Info("routing cancelled", zap.Int("completed", completed), zap.Int("total", total))
			break
		}

		end := min(start+p.opts.BatchSize, len(simplified))
		batch := simplified[start:end]

		leg, err := p.snapBatch(ctx, batch)
		switch {
		case errors.Is(err, ErrMissingAPIKey):
			// Fatal configuration error: no point continuing, return the
			// drawn input untouched.
			p.log.Warn("routing aborted: no API key configured")
			return Result{Route: points}
		case err != nil && ctx.Err() != nil:
			return Result{Route: route, Stats: stats, FailedBatches: failed}
		case err != nil:
			failed++
			p.log.Warn("batch abandoned",
				zap.Int("batch", completed+1),
				zap.Int("total", total),
				zap.Error(err),
			)
		default:
			appendLeg(&route, leg)
			stats.Distance += leg.Distance
			stats.Ascend += leg.Ascend
			stats.Descend += leg.Descend
		}

		completed++
		if onProgress != nil {
			onProgress(completed, total)
		}

		if end < len(simplified) {
			if err := p.sleep(ctx, p.opts.BatchDelay); err != nil {
				break
			}
		}
	}

	if len(route) > 0 {
		d := diagnose(simplified, route)
		p.log.Info("route assembled",
			zap.Float64("avgDeviationM", d.avgDeviationM),
			zap.Float64("maxDeviationM", d.maxDeviationM),
			zap.Int("deviationOutliers", d.outliers),
			zap.Int("sharpTurns", d.sharpTurns),
			zap.Float64("sharpestTurnDeg", d.sharpestDeg),
		)
	}

	return Result{Route: route, Stats: stats, FailedBatches: failed}
}

// appendLeg stitches a snapped leg onto the running route. After the first
// leg, the returned polyline starts at the overlap waypoint that already ends
// the route, so its first point is dropped to avoid a duplicate-point kink.
func appendLeg(route *[]geo.Point, leg Leg) {
	if len(*route) == 0 {
		*route = append(*route, leg.Points...)
		return
	}
	if len(leg.Points) > 0 {
		*route = append(*route, leg.Points[1:]...)
	}
}

// snapBatch tries one batch up to MaxAttempts times. Rate-limit responses
// wait for the service's suggested delay, or an exponential backoff starting
// at BackoffBase; other failures retry immediately.
func (p *Pipeline) snapBatch(ctx context.Context, batch []geo.Point) (Leg, error) {
	var lastErr error

	for attempt := 0; attempt < p.opts.MaxAttempts; attempt++ {
		leg, err := p.router.Snap(ctx, batch)
		if err == nil {
			return leg, nil
		}
		if errors.Is(err, ErrMissingAPIKey) {
			return Leg{}, err
		}
		if ctx.Err() != nil {
			return Leg{}, ctx.Err()
		}
		lastErr = err

		var rateErr *RateLimitError
		if errors.As(err, &rateErr) {
			wait := rateErr.RetryAfter
			if wait <= 0 {
				wait = p.opts.BackoffBase << attempt
			}
			p.log.Info("rate limited, backing off",
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
				zap.Int("maxAttempts", p.opts.MaxAttempts),
			)
			if err := p.sleep(ctx, wait); err != nil {
				return Leg{}, err
			}
		}
	}

	return Leg{}, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
