package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
)

// CreateSessionHandler starts a new location session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := deps.Sessions.CreateSession(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(201).JSON(session)
	}
}

// GetSessionHandler returns the full session state.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := deps.Sessions.GetSession(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "session not found")
		}
		return c.JSON(session)
	}
}

// positionRequest carries the device geolocation result. Exactly one of
// position or error_code is expected; a missing position with no error code
// still falls back to the default center.
type positionRequest struct {
	Position  *domain.GeoPoint `json:"position"`
	ErrorCode string           `json:"error_code"`
}

// ReportPositionHandler records the device position for a session.
func ReportPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req positionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		session, err := deps.Sessions.ReportPosition(c.Context(), c.Params("id"), req.Position, req.ErrorCode)
		if err != nil {
			if errors.Is(err, usecases.ErrSessionNotFound) {
				return errNotFound(c, "session not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(session)
	}
}

type destinationRequest struct {
	Text string `json:"text"`
}

// SetDestinationHandler resolves typed destination text via geocoding.
func SetDestinationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req destinationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Text == "" {
			return errBadRequest(c, "text is required")
		}

		session, err := deps.Sessions.SetDestination(c.Context(), c.Params("id"), req.Text)
		switch {
		case err == nil:
			return c.JSON(session)
		case errors.Is(err, usecases.ErrSessionNotFound):
			return errNotFound(c, "session not found")
		case errors.Is(err, usecases.ErrNoMatch):
			// The raw text is kept in the session, so return it with the error
			return c.Status(422).JSON(fiber.Map{
				"error":   err.Error(),
				"session": session,
			})
		default:
			return errInternal(c, err.Error())
		}
	}
}

type selectFarmerRequest struct {
	FarmerID string `json:"farmer_id"`
}

// SelectFarmerHandler tags the session destination with a farmer.
func SelectFarmerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectFarmerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.FarmerID == "" {
			return errBadRequest(c, "farmer_id is required")
		}

		session, err := deps.Sessions.SelectFarmer(c.Context(), c.Params("id"), req.FarmerID)
		switch {
		case err == nil:
			return c.JSON(session)
		case errors.Is(err, usecases.ErrSessionNotFound):
			return errNotFound(c, "session not found")
		case errors.Is(err, usecases.ErrFarmerNotFound):
			return errNotFound(c, "farmer not found")
		default:
			return errInternal(c, err.Error())
		}
	}
}

// ClearFarmerHandler resets the session destination to unset.
func ClearFarmerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := deps.Sessions.ClearFarmer(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, usecases.ErrSessionNotFound) {
				return errNotFound(c, "session not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(session)
	}
}

// FetchRouteHandler computes directions from the session origin to its
// destination and stores the decoded route on the session.
func FetchRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Sessions.FetchRoute(c.Context(), c.Params("id"))
		switch {
		case err == nil:
			return c.JSON(route)
		case errors.Is(err, usecases.ErrSessionNotFound):
			return errNotFound(c, "session not found")
		case errors.Is(err, usecases.ErrNoDestination):
			return errBadRequest(c, err.Error())
		case errors.Is(err, usecases.ErrNoRoutes):
			return errUnprocessable(c, err.Error())
		case errors.Is(err, usecases.ErrDirectionsFailed):
			LoggerFromCtx(c.UserContext()).Error("directions upstream failed",
				"session", c.Params("id"), "error", err)
			return errBadGateway(c, err.Error())
		default:
			return errInternal(c, err.Error())
		}
	}
}

// markerRequest adds a custom marker. When label is empty the marker is
// auto-labelled; manual markers require all three fields.
type markerRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Label string   `json:"label"`
}

// AddMarkerHandler adds a custom marker to the session.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req markerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var (
			marker *domain.CustomMarker
			err    error
		)
		if req.Label == "" {
			if req.Lat == nil || req.Lng == nil {
				return errBadRequest(c, "lat and lng are required")
			}
			marker, err = deps.Sessions.AddMarkerAt(c.Context(), c.Params("id"),
				domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng})
		} else {
			marker, err = deps.Sessions.AddMarkerManual(c.Context(), c.Params("id"),
				req.Lat, req.Lng, req.Label)
		}

		switch {
		case err == nil:
			return c.Status(201).JSON(marker)
		case errors.Is(err, usecases.ErrSessionNotFound):
			return errNotFound(c, "session not found")
		case errors.Is(err, usecases.ErrMarkerFields):
			return errBadRequest(c, err.Error())
		default:
			return errInternal(c, err.Error())
		}
	}
}

// ListMarkersHandler returns the session's custom markers in insertion order.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers, err := deps.Sessions.Markers(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, usecases.ErrSessionNotFound) {
				return errNotFound(c, "session not found")
			}
			return errInternal(c, err.Error())
		}
		if markers == nil {
			markers = []domain.CustomMarker{}
		}
		return c.JSON(markers)
	}
}

// TranscriptHandler accepts an audio utterance and sets the transcribed text
// as the session destination.
func TranscriptHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		audio := c.Body()
		contentType := c.Get(fiber.HeaderContentType, "audio/webm")
		language := c.Query("language", "en-US")

		transcript, err := deps.Speech.TranscribeDestination(c.Context(), c.Params("id"), audio, contentType, language)
		switch {
		case err == nil:
			return c.JSON(transcript)
		case errors.Is(err, usecases.ErrSessionNotFound):
			return errNotFound(c, "session not found")
		case errors.Is(err, usecases.ErrSpeechNoSpeech),
			errors.Is(err, usecases.ErrSpeechAudioCapture),
			errors.Is(err, usecases.ErrSpeechNotAllowed):
			return errUnprocessable(c, err.Error())
		case errors.Is(err, usecases.ErrTranscribeFailed):
			LoggerFromCtx(c.UserContext()).Error("speech upstream failed",
				"session", c.Params("id"), "error", err)
			return errBadGateway(c, err.Error())
		default:
			return errInternal(c, err.Error())
		}
	}
}

// ListFarmersHandler returns the full farmer directory with pagination.
func ListFarmersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmers, err := deps.Farmers.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		start, end, pg := pageBounds(c, len(farmers), 100, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: farmers[start:end], Pagination: pg})
	}
}

// NearbyFarmersHandler returns every farmer annotated with distance from the
// given origin. Nothing is filtered out: the map shows the whole directory
// and distance is advisory.
func NearbyFarmersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Presence of the params decides, not their value: (0, 0) is a
		// legitimate coordinate.
		var origin *domain.GeoPoint
		if c.Query("lat") != "" && c.Query("lng") != "" {
			origin = &domain.GeoPoint{
				Lat: c.QueryFloat("lat", 0),
				Lng: c.QueryFloat("lng", 0),
			}
		}

		farmers, err := deps.Farmers.Nearby(c.Context(), origin)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(farmers)
	}
}

// GetFarmerHandler returns a single farmer by ID.
func GetFarmerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmer, err := deps.Farmers.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "farmer not found")
		}
		return c.JSON(farmer)
	}
}

// UpsertFarmerHandler creates or updates a farmer directory entry.
func UpsertFarmerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var farmer domain.Farmer
		if err := c.BodyParser(&farmer); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Farmers.Upsert(c.Context(), &farmer); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(farmer)
	}
}

type deliveryRequest struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	FarmerID   string          `json:"farmer_id"`
	Dropoff    domain.GeoPoint `json:"dropoff"`
}

// RequestDeliveryHandler creates a delivery run and publishes it for
// dispatch.
func RequestDeliveryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req deliveryRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		delivery, err := deps.Deliveries.RequestDelivery(c.Context(),
			req.OrderID, req.CustomerID, req.FarmerID, req.Dropoff)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(delivery)
	}
}

// GetDeliveryHandler returns a delivery by ID.
func GetDeliveryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		delivery, err := deps.Deliveries.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "delivery not found")
		}
		return c.JSON(delivery)
	}
}

// DeliveryTrailHandler returns the latest courier positions for a delivery.
func DeliveryTrailHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trail, err := deps.Tracking.Trail(c.Context(), c.Params("id"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(trail)
	}
}
