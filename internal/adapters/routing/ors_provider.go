package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"delivtrack/internal/platform/obs"
	"delivtrack/internal/ports"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSProvider implements RouteProvider and Geocoder using OpenRouteService.
//
// ORS has no live traffic model, so legs never carry a traffic duration.
// The provider is safe for concurrent use.
type ORSProvider struct {
	*restClient
	profile      string
	country      string
	geocodeCache ports.GeocodeCache
}

type ORSOption func(*ORSProvider)

// WithORSBaseURL points the provider at another ORS deployment.
func WithORSBaseURL(u string) ORSOption {
	return func(o *ORSProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithGeocodeCache puts a persistent cache in front of /geocode/search.
func WithGeocodeCache(c ports.GeocodeCache) ORSOption {
	return func(o *ORSProvider) { o.geocodeCache = c }
}

// WithGeocodeCountry restricts geocoding to an ISO country code.
func WithGeocodeCountry(code string) ORSOption {
	return func(o *ORSProvider) { o.country = code }
}

func NewORSProvider(apiKey string, opts ...ORSOption) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSProvider{
		restClient: newRESTClient(defaultORSBaseURL, apiKey),
		profile:    "driving-car",
		country:    "FR",
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance *float64 `json:"distance"`
			Duration *float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// Route requests a driving route from ORS /v2/directions.
func (o *ORSProvider) Route(ctx context.Context, req ports.RouteRequest) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, o.profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{req.Origin.CoordsToList(), req.Destination.CoordsToList()},
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.RouteResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) == 0 {
		return ports.RouteResult{Status: "ZERO_RESULTS"}, nil
	}

	summary := dr.Routes[0].Summary
	// Identical start and end points come back with an empty summary.
	meters, seconds := 0.0, 0.0
	if summary.Distance != nil {
		meters = *summary.Distance
	}
	if summary.Duration != nil {
		seconds = *summary.Duration
	}

	// ORS returns float metrics; round to nearest integer for domain consistency.
	return ports.RouteResult{
		Status: ports.RouteStatusOK,
		Legs: []ports.RouteLeg{{
			DistanceMeters:  int(math.Round(meters)),
			DurationSeconds: int(math.Round(seconds)),
		}},
	}, nil
}
