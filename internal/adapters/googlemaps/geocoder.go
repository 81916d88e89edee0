package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/pkg/metrics"
)

// Geocoder implements ports.Geocoder against the Maps Geocoding API.
type Geocoder struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGeocoder creates a geocoding client. baseURL is overridable for tests.
func NewGeocoder(client *http.Client, baseURL, apiKey string) *Geocoder {
	return &Geocoder{client: client, baseURL: baseURL, apiKey: apiKey}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves free text to a formatted address and coordinate.
// Returns (nil, nil) when the provider reports zero results.
func (g *Geocoder) Geocode(ctx context.Context, text string) (*ports.GeocodeResult, error) {
	q := url.Values{}
	q.Set("address", text)
	q.Set("key", g.apiKey)

	resp, err := g.do(ctx, q)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return nil, err
	}
	if len(resp.Results) == 0 {
		metrics.GeocodeRequests.WithLabelValues("forward", "no_match").Inc()
		return nil, nil
	}

	metrics.GeocodeRequests.WithLabelValues("forward", "ok").Inc()
	r := resp.Results[0]
	return &ports.GeocodeResult{
		FormattedAddress: r.FormattedAddress,
		Location:         domain.GeoPoint{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}, nil
}

// ReverseGeocode resolves a coordinate to its first formatted address.
func (g *Geocoder) ReverseGeocode(ctx context.Context, point domain.GeoPoint) (string, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	q.Set("key", g.apiKey)

	resp, err := g.do(ctx, q)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return "", err
	}
	if len(resp.Results) == 0 {
		metrics.GeocodeRequests.WithLabelValues("reverse", "no_match").Inc()
		return "", fmt.Errorf("no address found for %.5f, %.5f", point.Lat, point.Lng)
	}

	metrics.GeocodeRequests.WithLabelValues("reverse", "ok").Inc()
	return resp.Results[0].FormattedAddress, nil
}

func (g *Geocoder) do(ctx context.Context, q url.Values) (*geocodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	switch body.Status {
	case "OK", "ZERO_RESULTS":
		return &body, nil
	default:
		return nil, fmt.Errorf("geocode status %s", body.Status)
	}
}
