package domain

import (
	"time"
)

// Farmer is a point-of-interest marker in the farmer directory.
type Farmer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Info      string    `json:"info,omitempty"`
	Location  GeoPoint  `json:"location"`
	Active    bool      `json:"active"`
	Distance  *float64  `json:"distance,omitempty"` // computed field, meters
	CreatedAt time.Time `json:"created_at"`
}

// CustomMarker is a user-added map marker. Session-scoped: it lives in the
// session record and is never persisted on its own. Markers are ordered,
// never deduplicated, and cannot be removed.
type CustomMarker struct {
	Position GeoPoint `json:"position"`
	Label    string   `json:"label"`
}

// RouteStep is one turn-by-turn instruction of a computed route.
type RouteStep struct {
	Instruction string `json:"instruction"`
	Distance    string `json:"distance"`
}

// RouteResult is a decoded directions response: the first route's polyline
// as ordered points plus its first leg's steps flattened to display strings.
// Fully replaced on every directions request.
type RouteResult struct {
	Path  []GeoPoint  `json:"path"`
	Steps []RouteStep `json:"steps"`
}

// LocationSession holds the per-session map state: the user's current
// position, the route origin address, the tagged destination, the last
// computed route, and any user-added markers.
type LocationSession struct {
	ID            string         `json:"id"`
	Position      *GeoPoint      `json:"position,omitempty"`
	OriginAddress string         `json:"origin_address,omitempty"`
	Destination   Destination    `json:"destination"`
	Route         *RouteResult   `json:"route,omitempty"`
	RouteState    RouteState     `json:"route_state"`
	Markers       []CustomMarker `json:"markers,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// MarkerCount returns the number of markers in the session.
func (s *LocationSession) MarkerCount() int {
	return len(s.Markers)
}

// Courier is a delivery rider visible on the live delivery map.
type Courier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	Location  GeoPoint  `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourierPosition is a real-time courier location reading.
type CourierPosition struct {
	Time       time.Time `json:"time"`
	CourierID  string    `json:"courier_id"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	Location   GeoPoint  `json:"location"`
	Heading    float64   `json:"heading"`
	Speed      float64   `json:"speed"` // m/s
}

// DeliveryStatus is the lifecycle state of a delivery run.
type DeliveryStatus string

const (
	DeliveryRequested DeliveryStatus = "requested"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryEnRoute   DeliveryStatus = "en_route"
	DeliveryCompleted DeliveryStatus = "completed"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery is a courier run from a farmer to a customer drop-off.
type Delivery struct {
	ID             string         `json:"id"`
	OrderID        string         `json:"order_id"`
	CustomerID     string         `json:"customer_id"`
	FarmerID       string         `json:"farmer_id"`
	Dropoff        GeoPoint       `json:"dropoff"`
	DropoffAddress string         `json:"dropoff_address,omitempty"`
	CourierID      string         `json:"courier_id,omitempty"`
	Status         DeliveryStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Transcript is a single-utterance speech-to-text result.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
