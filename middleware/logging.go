package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logging returns a middleware that logs method, path, status and latency
// for every request.
func Logging(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		logger.Printf("%s %s %s %d %s",
			c.IP(),
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start),
		)

		return err
	}
}
