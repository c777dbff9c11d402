package routing

import (
	"context"
	"log"

	"delivtrack/internal/ports"
)

// CachedRouteProvider puts a LegCache in front of another RouteProvider.
// Only OK results are cached, and cache failures degrade to a direct lookup.
type CachedRouteProvider struct {
	next  ports.RouteProvider
	cache ports.LegCache
}

func NewCachedRouteProvider(next ports.RouteProvider, cache ports.LegCache) *CachedRouteProvider {
	return &CachedRouteProvider{next: next, cache: cache}
}

func (c *CachedRouteProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	if c.cache != nil {
		leg, ok, err := c.cache.Get(ctx, req.Origin, req.Destination)
		if err != nil {
			log.Printf("leg cache read failed: origin=%s destination=%s err=%v", req.Origin, req.Destination, err)
		} else if ok {
			return ports.RouteResult{Status: ports.RouteStatusOK, Legs: []ports.RouteLeg{leg}}, nil
		}
	}

	res, err := c.next.Route(ctx, req)
	if err != nil {
		return ports.RouteResult{}, err
	}

	if c.cache != nil && res.Status == ports.RouteStatusOK && len(res.Legs) > 0 {
		if err := c.cache.Put(ctx, req.Origin, req.Destination, res.Legs[0]); err != nil {
			log.Printf("leg cache write failed: %v", err)
		}
	}

	return res, nil
}
