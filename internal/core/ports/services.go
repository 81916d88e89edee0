package ports

import (
	"context"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
)

// GeocodeResult is a resolved address with its coordinate.
type GeocodeResult struct {
	FormattedAddress string          `json:"formatted_address"`
	Location         domain.GeoPoint `json:"location"`
}

// Geocoder resolves free text to coordinates and back.
type Geocoder interface {
	// Geocode resolves free text to a formatted address and coordinate.
	// Returns a nil result when the provider finds no match.
	Geocode(ctx context.Context, text string) (*GeocodeResult, error)
	// ReverseGeocode resolves a coordinate to a human-readable address.
	ReverseGeocode(ctx context.Context, point domain.GeoPoint) (string, error)
}

// DirectionsStep is one provider step before flattening. Instructions may
// contain embedded HTML markup.
type DirectionsStep struct {
	Instruction  string `json:"instruction"`
	DistanceText string `json:"distance_text"`
}

// DirectionsLeg is one leg of a provider route.
type DirectionsLeg struct {
	Steps []DirectionsStep `json:"steps"`
}

// DirectionsRoute is one provider route with its encoded polyline.
type DirectionsRoute struct {
	EncodedPolyline string          `json:"encoded_polyline"`
	Legs            []DirectionsLeg `json:"legs"`
}

// DirectionsProvider computes routes between address strings.
type DirectionsProvider interface {
	// Route requests directions for (origin, destination, travelMode).
	// An empty slice with a nil error means the provider found no routes.
	Route(ctx context.Context, originAddress, destinationAddress, travelMode string) ([]DirectionsRoute, error)
}

// SpeechErrorCode classifies transcription failures from the provider.
type SpeechErrorCode string

const (
	SpeechNoSpeech     SpeechErrorCode = "no-speech"
	SpeechAudioCapture SpeechErrorCode = "audio-capture"
	SpeechNotAllowed   SpeechErrorCode = "not-allowed"
)

// SpeechError is a classified transcription failure.
type SpeechError struct {
	Code SpeechErrorCode
}

func (e *SpeechError) Error() string { return "speech: " + string(e.Code) }

// Transcriber converts a single audio utterance to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType, language string) (*domain.Transcript, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCourierPosition(ctx context.Context, cp *domain.CourierPosition) error
	PublishDeliveryRequested(ctx context.Context, d *domain.Delivery) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeCourierPositions(ctx context.Context, handler func(ctx context.Context, cp *domain.CourierPosition) error) error
	SubscribeDeliveryRequests(ctx context.Context, handler func(ctx context.Context, d *domain.Delivery) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}
