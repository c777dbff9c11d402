package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/obs"
	"delivtrack/internal/ports"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com"

// GoogleDirectionsProvider implements RouteProvider with the Google Maps
// Directions API, asking for traffic-aware durations at the departure time.
type GoogleDirectionsProvider struct {
	*restClient
	apiKey string
}

func NewGoogleDirectionsProvider(apiKey string, baseURL string) (*GoogleDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}

	return &GoogleDirectionsProvider{
		restClient: newRESTClient(baseURL, ""),
		apiKey:     apiKey,
	}, nil
}

type googleValue struct {
	Value int `json:"value"`
}

type googleDirectionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance          googleValue  `json:"distance"`
			Duration          googleValue  `json:"duration"`
			DurationInTraffic *googleValue `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

func latLng(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Route requests a driving route. Non-OK statuses (ZERO_RESULTS,
// OVER_QUERY_LIMIT, REQUEST_DENIED, ...) are passed through in the result.
func (g *GoogleDirectionsProvider) Route(ctx context.Context, req ports.RouteRequest) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "google.Route")(&err)

	endpoint := g.baseURL + "/maps/api/directions/json"

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		r, err := g.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := r.URL.Query()
		q.Set("origin", latLng(req.Origin))
		q.Set("destination", latLng(req.Destination))
		q.Set("mode", "driving")
		if !req.DepartureTime.IsZero() {
			q.Set("departure_time", strconv.FormatInt(req.DepartureTime.Unix(), 10))
			q.Set("traffic_model", "best_guess")
		}
		q.Set("key", g.apiKey)
		r.URL.RawQuery = q.Encode()
		return r, nil
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr googleDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.RouteResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	status := strings.TrimSpace(dr.Status)
	if status != ports.RouteStatusOK {
		if dr.ErrorMessage != "" {
			status = fmt.Sprintf("%s: %s", status, dr.ErrorMessage)
		}
		return ports.RouteResult{Status: status}, nil
	}
	if len(dr.Routes) == 0 || len(dr.Routes[0].Legs) == 0 {
		return ports.RouteResult{Status: "ZERO_RESULTS"}, nil
	}

	legs := make([]ports.RouteLeg, 0, len(dr.Routes[0].Legs))
	for _, l := range dr.Routes[0].Legs {
		leg := ports.RouteLeg{
			DistanceMeters:  l.Distance.Value,
			DurationSeconds: l.Duration.Value,
		}
		if l.DurationInTraffic != nil {
			v := l.DurationInTraffic.Value
			leg.DurationInTrafficSeconds = &v
		}
		legs = append(legs, leg)
	}

	return ports.RouteResult{Status: ports.RouteStatusOK, Legs: legs}, nil
}
