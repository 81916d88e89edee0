package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if the handler already set one
		if len(c.Response().Header.Peek("Cache-Control")) > 0 {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/sessions"):
			ttl = "private, no-store" // Session state is per-user and mutable

		case path == "/v1/farmers" || path == "/v1/markets":
			ttl = "public, max-age=300" // Directory changes rarely

		case strings.HasPrefix(path, "/v1/farmers/nearby"):
			ttl = "public, max-age=60" // Distance annotations depend on origin

		case strings.HasPrefix(path, "/v1/farmers/"):
			ttl = "public, max-age=600" // 10 min for single farmer

		case strings.HasPrefix(path, "/v1/deliveries/"):
			ttl = "private, max-age=5" // Live delivery state

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
