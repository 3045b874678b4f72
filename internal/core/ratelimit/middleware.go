package ratelimit

import (
	"github.com/gofiber/fiber/v2"

	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

// Middleware limits requests per authenticated user, falling back to the
// client IP for anonymous routes.
func Middleware(limiter *Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID, ok := c.Locals("userID").(string); ok && userID != "" {
			key = userID
		}

		allowed, err := limiter.Allow(key)
		if err != nil {
			utils.LogError("Rate limiter unavailable", err, map[string]interface{}{
				"key": key,
			})
			// Fail open: a broken counter store should not take the API down.
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please slow down",
			})
		}

		return c.Next()
	}
}
