package geospatial

import "testing"

func TestHaversine_KnownDistance(t *testing.T) {
	// San Francisco -> Oakland city centers, roughly 13.4 km.
	d := Haversine(37.7749, -122.4194, 37.8044, -122.2712)
	if d < 13000 || d > 14000 {
		t.Errorf("expected ~13.4km, got %.0fm", d)
	}
}

func TestHaversine_ZeroDistance(t *testing.T) {
	if d := Haversine(19.0760, 72.8777, 19.0760, 72.8777); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
}
