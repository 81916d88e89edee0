package domain

// GeoPoint represents a geographic coordinate (WGS 84).
// Immutable once obtained: produced by a device position report, by
// geocoding a free-text address, or by a map click.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// DestinationKind discriminates the destination variants of a session.
type DestinationKind string

const (
	DestinationUnset   DestinationKind = "unset"
	DestinationAddress DestinationKind = "address"
	DestinationFarmer  DestinationKind = "farmer"
)

// Destination is the tagged route destination of a location session.
// A selected farmer always supersedes a typed address; the variant is
// resolved exactly once, when a route is requested.
type Destination struct {
	Kind     DestinationKind `json:"kind"`
	FarmerID string          `json:"farmer_id,omitempty"`
	Address  string          `json:"address,omitempty"`
	Coord    *GeoPoint       `json:"coord,omitempty"`
}

// RouteState tracks the route display state machine of a session.
// Every new route request passes through RouteRequesting again; the
// terminal states hold only until superseded by the next request.
type RouteState string

const (
	RouteIdle       RouteState = "idle"
	RouteRequesting RouteState = "requesting"
	RouteRendered   RouteState = "rendered"
	RouteEmpty      RouteState = "empty"
	RouteFailed     RouteState = "failed"
)
