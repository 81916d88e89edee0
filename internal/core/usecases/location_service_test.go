package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
)

// Canonical polyline fixture: (38.5,-120.2) (40.7,-120.95) (43.252,-126.453).
const testPolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

// --- In-memory session store ---

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.LocationSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*domain.LocationSession)}
}

func (m *memSessionStore) Get(ctx context.Context, id string) (*domain.LocationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) Save(ctx context.Context, s *domain.LocationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// --- Mock collaborators ---

type mockFarmerRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Farmer, error)
	listFn    func(ctx context.Context) ([]domain.Farmer, error)
}

func (m *mockFarmerRepo) Upsert(ctx context.Context, f *domain.Farmer) error       { return nil }
func (m *mockFarmerRepo) UpsertBatch(ctx context.Context, f []domain.Farmer) error { return nil }
func (m *mockFarmerRepo) GetByID(ctx context.Context, id string) (*domain.Farmer, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}
func (m *mockFarmerRepo) List(ctx context.Context) ([]domain.Farmer, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, text string) (*ports.GeocodeResult, error)
	reverseFn func(ctx context.Context, p domain.GeoPoint) (string, error)
	calls     int
}

func (m *mockGeocoder) Geocode(ctx context.Context, text string) (*ports.GeocodeResult, error) {
	m.calls++
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, text)
	}
	return nil, nil
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, p domain.GeoPoint) (string, error) {
	m.calls++
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lng), nil
}

type mockDirections struct {
	routeFn func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error)
	calls   int
}

func (m *mockDirections) Route(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
	m.calls++
	if m.routeFn != nil {
		return m.routeFn(ctx, origin, dest, mode)
	}
	return nil, nil
}

func newLocationService(store *memSessionStore, farmers *mockFarmerRepo, geo *mockGeocoder, dir *mockDirections) *usecases.LocationService {
	return usecases.NewLocationService(store, farmers, geo, dir, nil, nil)
}

func createSession(t *testing.T, svc *usecases.LocationService) *domain.LocationSession {
	t.Helper()
	session, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.RouteState != domain.RouteIdle {
		t.Fatalf("expected idle route state, got %s", session.RouteState)
	}
	return session
}

// --- Tests ---

func TestReportPosition_Success(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "San Francisco, CA", nil
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, &mockDirections{})
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7793, Lng: -122.4192}
	updated, err := svc.ReportPosition(context.Background(), session.ID, &pos, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Position == nil || *updated.Position != pos {
		t.Errorf("expected position %v, got %v", pos, updated.Position)
	}
	if updated.OriginAddress != "San Francisco, CA" {
		t.Errorf("expected reverse-geocoded origin, got %q", updated.OriginAddress)
	}
}

func TestReportPosition_FallbackOnError(t *testing.T) {
	// Denied, unavailable and timeout all fall back to the same fixed
	// default coordinate; the position is never left undefined.
	for _, code := range []string{"permission-denied", "position-unavailable", "timeout"} {
		t.Run(code, func(t *testing.T) {
			store := newMemSessionStore()
			svc := newLocationService(store, &mockFarmerRepo{}, &mockGeocoder{}, &mockDirections{})
			session := createSession(t, svc)

			updated, err := svc.ReportPosition(context.Background(), session.ID, nil, code)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Position == nil {
				t.Fatal("expected fallback position, got nil")
			}
			if *updated.Position != usecases.DefaultPosition {
				t.Errorf("expected default position %v, got %v", usecases.DefaultPosition, *updated.Position)
			}
		})
	}
}

func TestReportPosition_ReverseGeocodeFailureKeepsCoordinate(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "", errors.New("boom")
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, &mockDirections{})
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 19.0760, Lng: 72.8777}
	updated, err := svc.ReportPosition(context.Background(), session.ID, &pos, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Position == nil || *updated.Position != pos {
		t.Errorf("coordinate should survive reverse-geocode failure")
	}
	if updated.OriginAddress != "" {
		t.Errorf("expected empty origin address, got %q", updated.OriginAddress)
	}
}

func TestSetDestination_StoresFormattedAddressAndCoord(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{
				FormattedAddress: "Mumbai, India",
				Location:         domain.GeoPoint{Lat: 19.0760, Lng: 72.8777},
			}, nil
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, &mockDirections{})
	session := createSession(t, svc)

	updated, err := svc.SetDestination(context.Background(), session.ID, "Mumbai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Destination.Kind != domain.DestinationAddress {
		t.Fatalf("expected address destination, got %s", updated.Destination.Kind)
	}
	if updated.Destination.Address != "Mumbai, India" {
		t.Errorf("expected formatted address, got %q", updated.Destination.Address)
	}
	if updated.Destination.Coord == nil || updated.Destination.Coord.Lat != 19.0760 {
		t.Errorf("expected resolved coordinate, got %v", updated.Destination.Coord)
	}
}

func TestSetDestination_NoMatchLeavesCoordUnset(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return nil, nil
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, &mockDirections{})
	session := createSession(t, svc)

	updated, err := svc.SetDestination(context.Background(), session.ID, "nowhere at all")
	if !errors.Is(err, usecases.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if updated.Destination.Coord != nil {
		t.Errorf("expected unset coordinate, got %v", updated.Destination.Coord)
	}
}

func TestFetchRoute_NoDestination_NoNetworkCall(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{}
	dir := &mockDirections{}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, dir)
	session := createSession(t, svc)

	_, err := svc.FetchRoute(context.Background(), session.ID)
	if !errors.Is(err, usecases.ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}
	if dir.calls != 0 {
		t.Errorf("expected zero directions calls, got %d", dir.calls)
	}
	if geo.calls != 0 {
		t.Errorf("expected zero geocoder calls, got %d", geo.calls)
	}
}

func TestFetchRoute_FarmerWithoutOrigin_NoCollaboratorCall(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{}
	dir := &mockDirections{}
	farmers := &mockFarmerRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Farmer, error) {
			return &domain.Farmer{ID: id, Name: "Green Valley Farm", Location: domain.GeoPoint{Lat: 37.78, Lng: -122.43}}, nil
		},
	}
	svc := newLocationService(store, farmers, geo, dir)
	session := createSession(t, svc)

	// Farmer selected but position never reported: validation must reject
	// before the farmer coordinate gets reverse-geocoded.
	if _, err := svc.SelectFarmer(context.Background(), session.ID, "farmer-01"); err != nil {
		t.Fatalf("select farmer: %v", err)
	}

	_, err := svc.FetchRoute(context.Background(), session.ID)
	if !errors.Is(err, usecases.ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}
	if geo.calls != 0 {
		t.Errorf("expected zero geocoder calls, got %d", geo.calls)
	}
	if dir.calls != 0 {
		t.Errorf("expected zero directions calls, got %d", dir.calls)
	}
}

func TestFetchRoute_ReverseGeocodeFailureTransitionsThroughRequesting(t *testing.T) {
	store := newMemSessionStore()
	var stateDuringReverse domain.RouteState
	geo := &mockGeocoder{}
	dir := &mockDirections{}
	farmers := &mockFarmerRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Farmer, error) {
			return &domain.Farmer{ID: id, Name: "Bayside Dairy", Location: domain.GeoPoint{Lat: 37.76, Lng: -122.39}}, nil
		},
	}
	svc := newLocationService(store, farmers, geo, dir)
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	if _, err := svc.ReportPosition(context.Background(), session.ID, &pos, ""); err != nil {
		t.Fatalf("report position: %v", err)
	}
	if _, err := svc.SelectFarmer(context.Background(), session.ID, "farmer-03"); err != nil {
		t.Fatalf("select farmer: %v", err)
	}

	geo.reverseFn = func(ctx context.Context, p domain.GeoPoint) (string, error) {
		snapshot, _ := store.Get(ctx, session.ID)
		stateDuringReverse = snapshot.RouteState
		return "", errors.New("upstream 502")
	}

	_, err := svc.FetchRoute(context.Background(), session.ID)
	if !errors.Is(err, usecases.ErrDirectionsFailed) {
		t.Fatalf("expected ErrDirectionsFailed, got %v", err)
	}
	if stateDuringReverse != domain.RouteRequesting {
		t.Errorf("expected requesting state during reverse geocode, got %s", stateDuringReverse)
	}

	snapshot, _ := svc.GetSession(context.Background(), session.ID)
	if snapshot.RouteState != domain.RouteFailed {
		t.Errorf("expected failed state, got %s", snapshot.RouteState)
	}
	if dir.calls != 0 {
		t.Errorf("directions must not be called after reverse geocode failure, got %d calls", dir.calls)
	}
}

func TestFetchRoute_ScenarioTypedDestination(t *testing.T) {
	// User resolves origin to "San Francisco, CA", selects the Mumbai
	// suggestion, then requests a route: exactly one directions request
	// with the formatted addresses.
	store := newMemSessionStore()
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "San Francisco, CA", nil
		},
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{
				FormattedAddress: "Mumbai, India",
				Location:         domain.GeoPoint{Lat: 19.0760, Lng: 72.8777},
			}, nil
		},
	}
	dir := &mockDirections{
		routeFn: func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
			if origin != "San Francisco, CA" {
				t.Errorf("expected origin 'San Francisco, CA', got %q", origin)
			}
			if dest != "Mumbai, India" {
				t.Errorf("expected destination 'Mumbai, India', got %q", dest)
			}
			if mode != usecases.TravelModeDrive {
				t.Errorf("expected DRIVE mode, got %q", mode)
			}
			return []ports.DirectionsRoute{{EncodedPolyline: testPolyline}}, nil
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, dir)
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	if _, err := svc.ReportPosition(context.Background(), session.ID, &pos, ""); err != nil {
		t.Fatalf("report position: %v", err)
	}
	if _, err := svc.SetDestination(context.Background(), session.ID, "Mumbai"); err != nil {
		t.Fatalf("set destination: %v", err)
	}

	result, err := svc.FetchRoute(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("fetch route: %v", err)
	}
	if dir.calls != 1 {
		t.Errorf("expected exactly one directions request, got %d", dir.calls)
	}
	if len(result.Path) != 3 {
		t.Errorf("expected 3 decoded points, got %d", len(result.Path))
	}

	snapshot, _ := svc.GetSession(context.Background(), session.ID)
	if snapshot.RouteState != domain.RouteRendered {
		t.Errorf("expected rendered state, got %s", snapshot.RouteState)
	}
}

// disconnectedPublisher fails every publish, the way a broker outage does.
type disconnectedPublisher struct{}

func (disconnectedPublisher) PublishCourierPosition(ctx context.Context, cp *domain.CourierPosition) error {
	return errors.New("nats: not connected")
}
func (disconnectedPublisher) PublishDeliveryRequested(ctx context.Context, d *domain.Delivery) error {
	return errors.New("nats: not connected")
}
func (disconnectedPublisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return errors.New("nats: not connected")
}

func TestFetchRoute_BroadcastFailureDoesNotFailRoute(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{
				FormattedAddress: "Mumbai, India",
				Location:         domain.GeoPoint{Lat: 19.0760, Lng: 72.8777},
			}, nil
		},
	}
	dir := &mockDirections{
		routeFn: func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
			return []ports.DirectionsRoute{{EncodedPolyline: testPolyline}}, nil
		},
	}
	svc := usecases.NewLocationService(store, &mockFarmerRepo{}, geo, dir, nil, disconnectedPublisher{})
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	if _, err := svc.ReportPosition(context.Background(), session.ID, &pos, ""); err != nil {
		t.Fatalf("report position: %v", err)
	}
	if _, err := svc.SetDestination(context.Background(), session.ID, "Mumbai"); err != nil {
		t.Fatalf("set destination: %v", err)
	}

	result, err := svc.FetchRoute(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("fetch route should survive a dead broadcast publisher: %v", err)
	}
	if len(result.Path) != 3 {
		t.Errorf("expected 3 decoded points, got %d", len(result.Path))
	}

	snapshot, _ := svc.GetSession(context.Background(), session.ID)
	if snapshot.RouteState != domain.RouteRendered {
		t.Errorf("expected rendered state, got %s", snapshot.RouteState)
	}
}

func TestFetchRoute_FarmerOverridesTypedDestination(t *testing.T) {
	store := newMemSessionStore()
	farmers := &mockFarmerRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Farmer, error) {
			return &domain.Farmer{
				ID:       id,
				Name:     "Green Valley Farm",
				Location: domain.GeoPoint{Lat: 37.3382, Lng: -121.8863},
			}, nil
		},
	}
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			if p.Lat == 37.3382 {
				return "San Jose, CA", nil
			}
			return "San Francisco, CA", nil
		},
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{
				FormattedAddress: "Mumbai, India",
				Location:         domain.GeoPoint{Lat: 19.0760, Lng: 72.8777},
			}, nil
		},
	}
	var gotDest string
	dir := &mockDirections{
		routeFn: func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
			gotDest = dest
			return []ports.DirectionsRoute{{EncodedPolyline: testPolyline}}, nil
		},
	}
	svc := newLocationService(store, farmers, geo, dir)
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	_, _ = svc.ReportPosition(context.Background(), session.ID, &pos, "")
	_, _ = svc.SetDestination(context.Background(), session.ID, "Mumbai")
	if _, err := svc.SelectFarmer(context.Background(), session.ID, "f1"); err != nil {
		t.Fatalf("select farmer: %v", err)
	}

	if _, err := svc.FetchRoute(context.Background(), session.ID); err != nil {
		t.Fatalf("fetch route: %v", err)
	}
	if gotDest != "San Jose, CA" {
		t.Errorf("farmer coordinate should win over typed destination, got %q", gotDest)
	}

	// Clearing the selection drops the destination entirely.
	cleared, err := svc.ClearFarmer(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("clear farmer: %v", err)
	}
	if cleared.Destination.Kind != domain.DestinationUnset {
		t.Errorf("expected unset destination after clear, got %s", cleared.Destination.Kind)
	}
}

func TestFetchRoute_EmptyResultClearsRoute(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "San Francisco, CA", nil
		},
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{FormattedAddress: "Mumbai, India", Location: domain.GeoPoint{Lat: 19.0760, Lng: 72.8777}}, nil
		},
	}
	calls := 0
	dir := &mockDirections{
		routeFn: func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
			calls++
			if calls == 1 {
				return []ports.DirectionsRoute{{EncodedPolyline: testPolyline}}, nil
			}
			return nil, nil
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, dir)
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	_, _ = svc.ReportPosition(context.Background(), session.ID, &pos, "")
	_, _ = svc.SetDestination(context.Background(), session.ID, "Mumbai")

	if _, err := svc.FetchRoute(context.Background(), session.ID); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	_, err := svc.FetchRoute(context.Background(), session.ID)
	if !errors.Is(err, usecases.ErrNoRoutes) {
		t.Fatalf("expected ErrNoRoutes, got %v", err)
	}

	snapshot, _ := svc.GetSession(context.Background(), session.ID)
	if snapshot.Route != nil {
		t.Error("previous route should be cleared on an empty result")
	}
	if snapshot.RouteState != domain.RouteEmpty {
		t.Errorf("expected empty state, got %s", snapshot.RouteState)
	}
}

func TestFetchRoute_TransportFailureClearsRoute(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "San Francisco, CA", nil
		},
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{FormattedAddress: "Mumbai, India", Location: domain.GeoPoint{Lat: 19.0760, Lng: 72.8777}}, nil
		},
	}
	dir := &mockDirections{
		routeFn: func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
			return nil, errors.New("upstream 502")
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, dir)
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	_, _ = svc.ReportPosition(context.Background(), session.ID, &pos, "")
	_, _ = svc.SetDestination(context.Background(), session.ID, "Mumbai")

	_, err := svc.FetchRoute(context.Background(), session.ID)
	if !errors.Is(err, usecases.ErrDirectionsFailed) {
		t.Fatalf("expected ErrDirectionsFailed, got %v", err)
	}

	snapshot, _ := svc.GetSession(context.Background(), session.ID)
	if snapshot.RouteState != domain.RouteFailed {
		t.Errorf("expected failed state, got %s", snapshot.RouteState)
	}
	if snapshot.Route != nil {
		t.Error("route should be cleared on transport failure")
	}
}

func TestFetchRoute_StripsMarkupFromInstructions(t *testing.T) {
	store := newMemSessionStore()
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, p domain.GeoPoint) (string, error) {
			return "San Francisco, CA", nil
		},
		geocodeFn: func(ctx context.Context, text string) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{FormattedAddress: "Oakland, CA", Location: domain.GeoPoint{Lat: 37.8044, Lng: -122.2712}}, nil
		},
	}
	dir := &mockDirections{
		routeFn: func(ctx context.Context, origin, dest, mode string) ([]ports.DirectionsRoute, error) {
			return []ports.DirectionsRoute{{
				EncodedPolyline: testPolyline,
				Legs: []ports.DirectionsLeg{{
					Steps: []ports.DirectionsStep{
						{Instruction: "Turn <b>left</b> onto Market St", DistanceText: "0.4 km"},
						{Instruction: "Merge onto <div style=\"font-size:0.9em\">I-80 E</div>", DistanceText: "8.1 km"},
					},
				}},
			}}, nil
		},
	}
	svc := newLocationService(store, &mockFarmerRepo{}, geo, dir)
	session := createSession(t, svc)

	pos := domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}
	_, _ = svc.ReportPosition(context.Background(), session.ID, &pos, "")
	_, _ = svc.SetDestination(context.Background(), session.ID, "Oakland")

	result, err := svc.FetchRoute(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("fetch route: %v", err)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Steps))
	}
	if result.Steps[0].Instruction != "Turn left onto Market St" {
		t.Errorf("markup not stripped: %q", result.Steps[0].Instruction)
	}
	if result.Steps[1].Instruction != "Merge onto I-80 E" {
		t.Errorf("markup not stripped: %q", result.Steps[1].Instruction)
	}
	if result.Steps[0].Distance != "0.4 km" {
		t.Errorf("expected distance text kept, got %q", result.Steps[0].Distance)
	}
}

func TestAddMarkerAt_AutoLabels(t *testing.T) {
	store := newMemSessionStore()
	svc := newLocationService(store, &mockFarmerRepo{}, &mockGeocoder{}, &mockDirections{})
	session := createSession(t, svc)

	for i := 1; i <= 3; i++ {
		m, err := svc.AddMarkerAt(context.Background(), session.ID, domain.GeoPoint{Lat: float64(i), Lng: float64(i)})
		if err != nil {
			t.Fatalf("add marker %d: %v", i, err)
		}
		want := fmt.Sprintf("Custom Marker %d", i)
		if m.Label != want {
			t.Errorf("expected label %q, got %q", want, m.Label)
		}
	}

	markers, err := svc.Markers(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("markers: %v", err)
	}
	if len(markers) != 3 {
		t.Errorf("expected 3 markers, got %d", len(markers))
	}
}

func TestAddMarkerManual_RequiresAllFields(t *testing.T) {
	store := newMemSessionStore()
	svc := newLocationService(store, &mockFarmerRepo{}, &mockGeocoder{}, &mockDirections{})
	session := createSession(t, svc)

	lat, lng := 37.0, -122.0

	cases := []struct {
		name  string
		lat   *float64
		lng   *float64
		label string
	}{
		{"missing lat", nil, &lng, "Stall"},
		{"missing lng", &lat, nil, "Stall"},
		{"missing label", &lat, &lng, ""},
		{"blank label", &lat, &lng, "   "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddMarkerManual(context.Background(), session.ID, tc.lat, tc.lng, tc.label)
			if !errors.Is(err, usecases.ErrMarkerFields) {
				t.Fatalf("expected ErrMarkerFields, got %v", err)
			}
		})
	}

	// Rejected attempts must not mutate the marker list.
	markers, _ := svc.Markers(context.Background(), session.ID)
	if len(markers) != 0 {
		t.Errorf("expected no markers after rejected input, got %d", len(markers))
	}

	if _, err := svc.AddMarkerManual(context.Background(), session.ID, &lat, &lng, "Honey Stall"); err != nil {
		t.Fatalf("valid manual marker rejected: %v", err)
	}
}
