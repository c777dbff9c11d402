package routing

import (
	"context"
	"sync"

	"delivtrack/internal/domain"
	"delivtrack/internal/ports"
)

type MockLeg struct {
	From, To       domain.Coordinates
	Meters         int
	Seconds        int
	TrafficSeconds *int
	Status         string
}

// MockRouteProvider answers from a fixed table of legs. Unknown pairs get
// ZERO_RESULTS, like a real directions service with no route.
type MockRouteProvider struct {
	mu    sync.Mutex
	m     map[string]MockLeg
	Err   error
	calls int
}

func NewMockRouteProvider(legs []MockLeg) *MockRouteProvider {
	m := make(map[string]MockLeg, len(legs))
	for _, l := range legs {
		m[l.From.Key()+"|"+l.To.Key()] = l
	}
	return &MockRouteProvider{m: m}
}

func (p *MockRouteProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.Err != nil {
		return ports.RouteResult{}, p.Err
	}
	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}

	l, ok := p.m[req.Origin.Key()+"|"+req.Destination.Key()]
	if !ok {
		return ports.RouteResult{Status: "ZERO_RESULTS"}, nil
	}

	status := l.Status
	if status == "" {
		status = ports.RouteStatusOK
	}
	if status != ports.RouteStatusOK {
		return ports.RouteResult{Status: status}, nil
	}

	return ports.RouteResult{
		Status: status,
		Legs: []ports.RouteLeg{{
			DistanceMeters:           l.Meters,
			DurationSeconds:          l.Seconds,
			DurationInTrafficSeconds: l.TrafficSeconds,
		}},
	}, nil
}

// Calls reports how many lookups were made.
func (p *MockRouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
