package middleware

import (
	"strconv"
	"time"

	"github.com/appforge/backend/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// route pattern keeps label cardinality bounded
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		m.ObserveHTTP(c.Method(), route, strconv.Itoa(status), time.Since(start))

		return err
	}
}
