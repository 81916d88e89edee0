package googlemaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/pkg/metrics"
)

// Directions implements ports.DirectionsProvider against the Routes API
// (computeRoutes). Requests are keyed by address strings, never raw
// coordinates.
type Directions struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewDirections creates a directions client. baseURL is overridable for tests.
func NewDirections(client *http.Client, baseURL, apiKey string) *Directions {
	return &Directions{client: client, baseURL: baseURL, apiKey: apiKey}
}

type routesRequest struct {
	Origin      waypoint `json:"origin"`
	Destination waypoint `json:"destination"`
	TravelMode  string   `json:"travelMode"`
}

type waypoint struct {
	Address string `json:"address"`
}

type routesResponse struct {
	Routes []struct {
		Polyline struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
		Legs []struct {
			Steps []struct {
				NavigationInstruction struct {
					Instructions string `json:"instructions"`
				} `json:"navigationInstruction"`
				LocalizedValues struct {
					Distance struct {
						Text string `json:"text"`
					} `json:"distance"`
				} `json:"localizedValues"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

const routesFieldMask = "routes.polyline.encodedPolyline,routes.legs.steps.navigationInstruction,routes.legs.steps.localizedValues"

// Route requests directions for (origin, destination, travelMode). An empty
// slice with a nil error means the provider found no routes.
func (d *Directions) Route(ctx context.Context, originAddress, destinationAddress, travelMode string) ([]ports.DirectionsRoute, error) {
	payload, err := json.Marshal(routesRequest{
		Origin:      waypoint{Address: originAddress},
		Destination: waypoint{Address: destinationAddress},
		TravelMode:  travelMode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal routes request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build routes request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", d.apiKey)
	req.Header.Set("X-Goog-FieldMask", routesFieldMask)

	start := time.Now()
	resp, err := d.client.Do(req)
	metrics.DirectionsLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DirectionsRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("routes request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.DirectionsRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("routes status %d", resp.StatusCode)
	}

	var body routesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.DirectionsRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode routes response: %w", err)
	}

	if len(body.Routes) == 0 {
		metrics.DirectionsRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	metrics.DirectionsRequests.WithLabelValues("ok").Inc()
	routes := make([]ports.DirectionsRoute, 0, len(body.Routes))
	for _, r := range body.Routes {
		route := ports.DirectionsRoute{EncodedPolyline: r.Polyline.EncodedPolyline}
		for _, leg := range r.Legs {
			var steps []ports.DirectionsStep
			for _, s := range leg.Steps {
				steps = append(steps, ports.DirectionsStep{
					Instruction:  s.NavigationInstruction.Instructions,
					DistanceText: s.LocalizedValues.Distance.Text,
				})
			}
			route.Legs = append(route.Legs, ports.DirectionsLeg{Steps: steps})
		}
		routes = append(routes, route)
	}
	return routes, nil
}
