package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rohanmhatre/farmroute/internal/adapters/googlemaps"
	"github.com/rohanmhatre/farmroute/internal/adapters/http"
	natsadapter "github.com/rohanmhatre/farmroute/internal/adapters/nats"
	"github.com/rohanmhatre/farmroute/internal/adapters/postgres"
	"github.com/rohanmhatre/farmroute/internal/adapters/speech"
	"github.com/rohanmhatre/farmroute/internal/adapters/valkey"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/core/usecases"
	"github.com/rohanmhatre/farmroute/internal/pkg/config"
	"github.com/rohanmhatre/farmroute/internal/pkg/httpclient"
	"github.com/rohanmhatre/farmroute/internal/pkg/logging"
	"github.com/rohanmhatre/farmroute/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("farmroute-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup("farmroute-api", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("tracer shutdown", "error", err)
				}
			}()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache + session store. Sessions live in Valkey, so unlike the
	// read-through cache this dependency is hard.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()
	sessionStore := valkey.NewSessionStore(cache, cfg.Session.TTLSeconds)

	// NATS. Assign the interface only on success: a typed-nil *Publisher
	// would slip past the services' nil-interface guards.
	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Outbound providers share one pooled client
	outbound := httpclient.NewOutbound()
	geocoder := googlemaps.NewGeocoder(outbound, cfg.Google.GeocodeURL, cfg.Google.APIKey)
	directions := googlemaps.NewDirections(outbound, cfg.Google.RoutesURL, cfg.Google.APIKey)
	transcriber := speech.NewTranscriber(outbound, cfg.Speech.URL, cfg.Speech.APIKey)

	// Repos
	farmerRepo := postgres.NewFarmerRepo(db)
	courierRepo := postgres.NewCourierRepo(db)
	deliveryRepo := postgres.NewDeliveryRepo(db)

	// Use cases
	locationSvc := usecases.NewLocationService(sessionStore, farmerRepo, geocoder, directions, cache, publisher)
	farmerSvc := usecases.NewFarmerService(farmerRepo, cache)
	speechSvc := usecases.NewSpeechService(transcriber, sessionStore)
	deliverySvc := usecases.NewDeliveryService(deliveryRepo, courierRepo, publisher, nil)
	trackingSvc := usecases.NewTrackingService(courierRepo, publisher)

	deps := &http.Dependencies{
		Sessions:   locationSvc,
		Farmers:    farmerSvc,
		Speech:     speechSvc,
		Deliveries: deliverySvc,
		Tracking:   trackingSvc,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    2 * 1024 * 1024, // audio clips ride in the request body
		AppName:      "FarmRoute API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.farmroute.market",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
