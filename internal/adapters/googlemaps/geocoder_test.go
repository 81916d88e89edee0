package googlemaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

func TestGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "Mumbai" {
			t.Errorf("expected address=Mumbai, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Mumbai, Maharashtra, India",
				"geometry": {"location": {"lat": 19.0760, "lng": 72.8777}}
			}]
		}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, "test-key")
	result, err := g.Geocode(context.Background(), "Mumbai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.FormattedAddress != "Mumbai, Maharashtra, India" {
		t.Errorf("unexpected address %q", result.FormattedAddress)
	}
	if result.Location.Lat != 19.0760 || result.Location.Lng != 72.8777 {
		t.Errorf("unexpected location %+v", result.Location)
	}
}

func TestGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, "test-key")
	result, err := g.Geocode(context.Background(), "xyzzy")
	if err != nil {
		t.Fatalf("zero results must not be an error, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestGeocode_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED"}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, "bad-key")
	if _, err := g.Geocode(context.Background(), "Mumbai"); err == nil {
		t.Error("expected error for REQUEST_DENIED")
	}
}

func TestReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latlng"); got == "" {
			t.Error("expected latlng parameter")
		}
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{"formatted_address": "San Francisco, CA, USA", "geometry": {"location": {"lat": 37.7749, "lng": -122.4194}}}]
		}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL, "test-key")
	addr, err := g.ReverseGeocode(context.Background(), domain.GeoPoint{Lat: 37.7749, Lng: -122.4194})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "San Francisco, CA, USA" {
		t.Errorf("unexpected address %q", addr)
	}
}
