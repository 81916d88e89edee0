package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler is the liveness probe; it answers as long as the process
// is serving requests.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler is the readiness probe. The API cannot do useful work
// without Postgres or the Valkey session store; a NATS disconnect only
// degrades the live map but still flips readiness so the orchestrator
// stops routing traffic here.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		report := func(name string, err error) {
			if err != nil {
				checks[name] = "error: " + err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}

		if deps.DB != nil {
			report("database", deps.DB.Ping(ctx))
		} else {
			checks["database"] = "not configured"
			ready = false
		}

		// Valkey backs the session store, not just the read-through cache
		if deps.Cache != nil {
			report("sessions", deps.Cache.Ping(ctx))
		} else {
			checks["sessions"] = "not configured"
			ready = false
		}

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case deps.NATS.IsConnected():
			checks["nats"] = "ok"
		default:
			checks["nats"] = "disconnected"
			ready = false
		}

		status, code := "ready", 200
		if !ready {
			status, code = "not ready", 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
