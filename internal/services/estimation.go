package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"delivtrack/internal/domain"
	"delivtrack/internal/geo"
	"delivtrack/internal/platform/obs"
	"delivtrack/internal/ports"

	"golang.org/x/sync/errgroup"
)

const (
	// Parking and hand-off time added on top of a routing-service duration.
	externalServiceMinutes = 5

	// Fallback model: ~30 km/h urban average plus a flat parking/hand-off
	// allowance. Calibrated separately from the routing-service path.
	fallbackMinutesPerKm   = 2
	fallbackServiceMinutes = 10

	DefaultOracleTimeout = 8 * time.Second

	// Maximum concurrent routing-service calls in EstimateLegs.
	maxParallelEstimates = 5
)

var errNoRoute = errors.New("no usable route")

// Estimator turns a leg into a distance/duration estimate. It prefers the
// routing provider and falls back to great-circle math whenever the provider
// is missing, slow or returns anything other than an OK route.
//
// The estimator is safe for concurrent use.
type Estimator struct {
	Provider ports.RouteProvider
	Timeout  time.Duration
	Now      func() time.Time
}

func NewEstimator(provider ports.RouteProvider, timeout time.Duration) *Estimator {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Estimator{Provider: provider, Timeout: timeout, Now: time.Now}
}

// Estimate never fails; provider problems are reported through
// Estimate.Source.
func (e *Estimator) Estimate(ctx context.Context, origin, destination domain.Coordinates) domain.Estimate {
	if e == nil || e.Provider == nil {
		return FallbackEstimate(origin, destination)
	}

	est, err := e.external(ctx, origin, destination)
	if err != nil {
		log.Printf("estimate: source=fallback origin=%s destination=%s reason=%v", origin, destination, err)
		return FallbackEstimate(origin, destination)
	}
	return est
}

// FallbackEstimate is the deterministic estimate used without a routing
// provider.
func FallbackEstimate(origin, destination domain.Coordinates) domain.Estimate {
	km := geo.RoundKm(geo.DistanceKm(origin, destination))
	return domain.Estimate{
		DistanceKm:      km,
		DurationMinutes: int(math.Round(km*fallbackMinutesPerKm)) + fallbackServiceMinutes,
		Source:          domain.SourceFallback,
	}
}

func (e *Estimator) external(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (_ domain.Estimate, err error) {
	defer obs.Time(ctx, "estimate.route")(&err)

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	req := ports.RouteRequest{
		Origin:        origin,
		Destination:   destination,
		DepartureTime: now(),
	}

	type reply struct {
		res ports.RouteResult
		err error
	}

	// Providers that ignore ctx must not hold the caller past the timeout.
	ch := make(chan reply, 1)
	go func() {
		res, err := e.Provider.Route(ctx, req)
		ch <- reply{res: res, err: err}
	}()

	var r reply
	select {
	case <-ctx.Done():
		return domain.Estimate{}, fmt.Errorf("route request: %w", ctx.Err())
	case r = <-ch:
	}

	if r.err != nil {
		return domain.Estimate{}, fmt.Errorf("route request: %w", r.err)
	}
	if r.res.Status != ports.RouteStatusOK {
		return domain.Estimate{}, fmt.Errorf("%w: status %q", errNoRoute, r.res.Status)
	}
	if len(r.res.Legs) == 0 {
		return domain.Estimate{}, fmt.Errorf("%w: response has no legs", errNoRoute)
	}

	leg := r.res.Legs[0]
	seconds := leg.DurationSeconds
	if leg.DurationInTrafficSeconds != nil {
		seconds = *leg.DurationInTrafficSeconds
	}
	if leg.DistanceMeters < 0 || seconds < 0 {
		return domain.Estimate{}, fmt.Errorf("%w: negative leg metrics", errNoRoute)
	}

	return domain.Estimate{
		DistanceKm:      geo.RoundKm(float64(leg.DistanceMeters) / 1000),
		DurationMinutes: int(math.Ceil(float64(seconds)/60)) + externalServiceMinutes,
		Source:          domain.SourceExternal,
	}, nil
}

// Leg is an origin/destination pair submitted to EstimateLegs.
type Leg struct {
	Origin      domain.Coordinates
	Destination domain.Coordinates
}

// EstimateLegs estimates independent legs concurrently. The result is
// index-aligned with legs.
func (e *Estimator) EstimateLegs(ctx context.Context, legs []Leg) []domain.Estimate {
	out := make([]domain.Estimate, len(legs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelEstimates)
	for i, l := range legs {
		g.Go(func() error {
			out[i] = e.Estimate(gctx, l.Origin, l.Destination)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
