package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/pkg/geospatial"
)

// User-facing error taxonomy: validation errors are checked before any
// collaborator call; no-match and transport errors surface as generic
// messages with no structured retry.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoDestination    = errors.New("please select a destination or a farmer")
	ErrNoMatch          = errors.New("no results found for that address")
	ErrNoRoutes         = errors.New("no routes found")
	ErrDirectionsFailed = errors.New("could not fetch directions")
	ErrMarkerFields     = errors.New("latitude, longitude and label are required")
	ErrFarmerNotFound   = errors.New("farmer not found")
)

// DefaultPosition is the fallback coordinate used when device geolocation
// is denied or unavailable. No distinction is made between failure causes.
var DefaultPosition = domain.GeoPoint{Lat: 37.7749, Lng: -122.4194}

// TravelModeDrive is the only travel mode issued to the directions provider.
const TravelModeDrive = "DRIVE"

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// LocationService mediates between a client-reported position, a geocoding
// collaborator, a directions collaborator, and session-scoped map state.
type LocationService struct {
	sessions   ports.SessionStore
	farmers    ports.FarmerRepository
	geocoder   ports.Geocoder
	directions ports.DirectionsProvider
	cache      ports.CacheService
	publisher  ports.EventPublisher
}

// NewLocationService creates a new LocationService. cache and publisher
// may be nil.
func NewLocationService(
	sessions ports.SessionStore,
	farmers ports.FarmerRepository,
	geocoder ports.Geocoder,
	directions ports.DirectionsProvider,
	cache ports.CacheService,
	publisher ports.EventPublisher,
) *LocationService {
	return &LocationService{
		sessions:   sessions,
		farmers:    farmers,
		geocoder:   geocoder,
		directions: directions,
		cache:      cache,
		publisher:  publisher,
	}
}

// CreateSession starts a new location session in the idle route state.
func (s *LocationService) CreateSession(ctx context.Context) (*domain.LocationSession, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	session := &domain.LocationSession{
		ID:          id,
		Destination: domain.Destination{Kind: domain.DestinationUnset},
		RouteState:  domain.RouteIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// GetSession returns a session snapshot.
func (s *LocationService) GetSession(ctx context.Context, id string) (*domain.LocationSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ReportPosition records the device position for a session. A nil position
// or a non-empty geolocation error code falls back to DefaultPosition.
// On success the coordinate is reverse-geocoded to an origin address; a
// reverse-geocode failure keeps the coordinate with an empty address.
func (s *LocationService) ReportPosition(ctx context.Context, id string, position *domain.GeoPoint, geoErrorCode string) (*domain.LocationSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	pos := DefaultPosition
	if position != nil && geoErrorCode == "" {
		pos = *position
	}
	session.Position = &pos

	if addr, err := s.reverseGeocode(ctx, pos); err == nil {
		session.OriginAddress = addr
	}

	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SetDestination resolves free text to a coordinate via the geocoding
// collaborator. On no match the typed text is kept but the coordinate
// stays unset, so a later route request fails fast.
func (s *LocationService) SetDestination(ctx context.Context, id, text string) (*domain.LocationSession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoDestination
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	result, err := s.geocode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", text, err)
	}

	if result == nil {
		session.Destination = domain.Destination{Kind: domain.DestinationAddress, Address: text}
		session.UpdatedAt = time.Now()
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return session, ErrNoMatch
	}

	coord := result.Location
	session.Destination = domain.Destination{
		Kind:    domain.DestinationAddress,
		Address: result.FormattedAddress,
		Coord:   &coord,
	}
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SelectFarmer sets a farmer as the implicit destination, superseding any
// typed address until cleared.
func (s *LocationService) SelectFarmer(ctx context.Context, id, farmerID string) (*domain.LocationSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	farmer, err := s.farmers.GetByID(ctx, farmerID)
	if err != nil || farmer == nil {
		return nil, ErrFarmerNotFound
	}

	session.Destination = domain.Destination{Kind: domain.DestinationFarmer, FarmerID: farmer.ID}
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// ClearFarmer removes a farmer selection. A previously typed address is not
// restored; the destination returns to unset.
func (s *LocationService) ClearFarmer(ctx context.Context, id string) (*domain.LocationSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if session.Destination.Kind == domain.DestinationFarmer {
		session.Destination = domain.Destination{Kind: domain.DestinationUnset}
		session.UpdatedAt = time.Now()
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return session, nil
}

// FetchRoute resolves the session destination, requests directions keyed by
// (originAddress, destinationAddress, DRIVE), and stores the decoded result.
// Every call fully replaces prior route state. No retry, no caching, no
// request de-duplication: concurrent calls are last-write-wins.
func (s *LocationService) FetchRoute(ctx context.Context, id string) (*domain.RouteResult, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	// Validation happens before any collaborator call: the destination
	// variant must be resolvable and the origin must have been acquired.
	switch session.Destination.Kind {
	case domain.DestinationFarmer:
	case domain.DestinationAddress:
		if session.Destination.Coord == nil {
			return nil, ErrNoDestination
		}
	default:
		return nil, ErrNoDestination
	}
	if session.OriginAddress == "" {
		return nil, ErrNoDestination
	}

	// Farmer lookup is a local read, still part of validation.
	var farmerDest *domain.Farmer
	if session.Destination.Kind == domain.DestinationFarmer {
		farmer, err := s.farmers.GetByID(ctx, session.Destination.FarmerID)
		if err != nil || farmer == nil {
			return nil, ErrFarmerNotFound
		}
		farmerDest = farmer
	}

	session.RouteState = domain.RouteRequesting
	session.UpdatedAt = time.Now()
	_ = s.sessions.Save(ctx, session)

	destAddress := session.Destination.Address
	if farmerDest != nil {
		// The directions collaborator takes address strings, so the
		// farmer coordinate is reverse-geocoded first.
		addr, err := s.reverseGeocode(ctx, farmerDest.Location)
		if err != nil {
			s.failRoute(ctx, session)
			return nil, ErrDirectionsFailed
		}
		destAddress = addr
	}

	routes, err := s.directions.Route(ctx, session.OriginAddress, destAddress, TravelModeDrive)
	if err != nil {
		s.failRoute(ctx, session)
		return nil, ErrDirectionsFailed
	}
	if len(routes) == 0 {
		session.Route = nil
		session.RouteState = domain.RouteEmpty
		session.UpdatedAt = time.Now()
		_ = s.sessions.Save(ctx, session)
		return nil, ErrNoRoutes
	}

	result := decodeRoute(routes[0])
	session.Route = result
	session.RouteState = domain.RouteRendered
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if s.publisher != nil {
		if data, err := json.Marshal(map[string]any{
			"session_id": session.ID,
			"points":     len(result.Path),
			"steps":      len(result.Steps),
		}); err == nil {
			_ = s.publisher.PublishBroadcast(ctx, data)
		}
	}

	return result, nil
}

// AddMarkerAt appends a map-click marker with an auto-derived label
// "Custom Marker N", N being the current marker count plus one.
func (s *LocationService) AddMarkerAt(ctx context.Context, id string, position domain.GeoPoint) (*domain.CustomMarker, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	marker := domain.CustomMarker{
		Position: position,
		Label:    fmt.Sprintf("Custom Marker %d", session.MarkerCount()+1),
	}
	session.Markers = append(session.Markers, marker)
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &marker, nil
}

// AddMarkerManual appends a marker from form input. Latitude, longitude and
// label must all be present, otherwise the session is left untouched.
func (s *LocationService) AddMarkerManual(ctx context.Context, id string, lat, lng *float64, label string) (*domain.CustomMarker, error) {
	if lat == nil || lng == nil || strings.TrimSpace(label) == "" {
		return nil, ErrMarkerFields
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	marker := domain.CustomMarker{
		Position: domain.GeoPoint{Lat: *lat, Lng: *lng},
		Label:    strings.TrimSpace(label),
	}
	session.Markers = append(session.Markers, marker)
	session.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &marker, nil
}

// Markers lists the session's custom markers in insertion order.
func (s *LocationService) Markers(ctx context.Context, id string) ([]domain.CustomMarker, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session.Markers, nil
}

// failRoute clears any previous route and marks the session failed.
func (s *LocationService) failRoute(ctx context.Context, session *domain.LocationSession) {
	session.Route = nil
	session.RouteState = domain.RouteFailed
	session.UpdatedAt = time.Now()
	_ = s.sessions.Save(ctx, session)
}

// geocode forward-geocodes with read-through caching. Directions results
// are never cached; geocoding of stable addresses is.
func (s *LocationService) geocode(ctx context.Context, text string) (*ports.GeocodeResult, error) {
	cacheKey := "geo:fwd:" + strings.ToLower(text)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var result ports.GeocodeResult
			if err := json.Unmarshal(data, &result); err == nil {
				return &result, nil
			}
		}
	}

	result, err := s.geocoder.Geocode(ctx, text)
	if err != nil || result == nil {
		return result, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}
	return result, nil
}

// reverseGeocode resolves a coordinate to an address with read-through
// caching keyed by the coordinate rounded to ~1m precision.
func (s *LocationService) reverseGeocode(ctx context.Context, point domain.GeoPoint) (string, error) {
	cacheKey := fmt.Sprintf("geo:rev:%.5f:%.5f", point.Lat, point.Lng)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			return string(data), nil
		}
	}

	addr, err := s.geocoder.ReverseGeocode(ctx, point)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, []byte(addr), 3600)
	}
	return addr, nil
}

// decodeRoute flattens the first leg's steps and decodes the polyline.
// Embedded HTML markup is stripped from instruction text.
func decodeRoute(route ports.DirectionsRoute) *domain.RouteResult {
	result := &domain.RouteResult{}

	for _, p := range geospatial.DecodePolyline(route.EncodedPolyline) {
		result.Path = append(result.Path, domain.GeoPoint{Lat: p.Lat, Lng: p.Lng})
	}

	if len(route.Legs) > 0 {
		for _, step := range route.Legs[0].Steps {
			result.Steps = append(result.Steps, domain.RouteStep{
				Instruction: strings.TrimSpace(htmlTags.ReplaceAllString(step.Instruction, "")),
				Distance:    step.DistanceText,
			})
		}
	}

	return result
}

func generateSessionID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "ls-" + hex.EncodeToString(b), nil
}
