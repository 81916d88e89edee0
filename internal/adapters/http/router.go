package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/rohanmhatre/farmroute/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// /v1/markets was the directory endpoint before farmers got their own
	// resource; keep it alive with sunset headers until clients migrate.
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/markets",
			SunsetDate:  time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/farmers",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Location sessions
	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), 15*time.Second))
	v1.Put("/sessions/:id/position", timeout.NewWithContext(ReportPositionHandler(deps), 15*time.Second))
	v1.Put("/sessions/:id/destination", timeout.NewWithContext(SetDestinationHandler(deps), 15*time.Second))
	v1.Put("/sessions/:id/farmer", timeout.NewWithContext(SelectFarmerHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id/farmer", timeout.NewWithContext(ClearFarmerHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/route", timeout.NewWithContext(FetchRouteHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/markers", timeout.NewWithContext(AddMarkerHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/markers", timeout.NewWithContext(ListMarkersHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/transcript", timeout.NewWithContext(TranscriptHandler(deps), 15*time.Second))

	// Farmer directory
	v1.Get("/farmers", timeout.NewWithContext(ListFarmersHandler(deps), 15*time.Second))
	v1.Get("/farmers/nearby", timeout.NewWithContext(NearbyFarmersHandler(deps), 15*time.Second))
	v1.Get("/farmers/:id", timeout.NewWithContext(GetFarmerHandler(deps), 15*time.Second))
	v1.Post("/farmers", timeout.NewWithContext(UpsertFarmerHandler(deps), 15*time.Second))
	v1.Get("/markets", timeout.NewWithContext(ListFarmersHandler(deps), 15*time.Second))

	// Deliveries
	v1.Post("/deliveries", timeout.NewWithContext(RequestDeliveryHandler(deps), 15*time.Second))
	v1.Get("/deliveries/:id", timeout.NewWithContext(GetDeliveryHandler(deps), 15*time.Second))
	v1.Get("/deliveries/:id/trail", timeout.NewWithContext(DeliveryTrailHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
