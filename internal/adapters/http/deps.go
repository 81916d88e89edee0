package http

import (
	"github.com/nats-io/nats.go"

	"github.com/rohanmhatre/farmroute/internal/adapters/postgres"
	"github.com/rohanmhatre/farmroute/internal/adapters/valkey"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions   *usecases.LocationService
	Farmers    *usecases.FarmerService
	Speech     *usecases.SpeechService
	Deliveries *usecases.DeliveryService
	Tracking   *usecases.TrackingService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
