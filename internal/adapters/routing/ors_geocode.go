package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"delivtrack/internal/domain"
	"delivtrack/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves an address with OpenRouteService (/geocode/search),
// consulting the geocode cache first when one is configured.
func (o *ORSProvider) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: address must be non-empty")
	}

	if o.geocodeCache != nil {
		hits, err := o.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Printf("geocode cache read failed: %v", err)
		} else if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	c, err := o.geocodeOne(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return c, nil
}

func (o *ORSProvider) geocodeOne(ctx context.Context, norm string) (domain.Coordinates, error) {
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", norm)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	return domain.Coordinates{Lng: coords[0], Lat: coords[1]}, nil
}
