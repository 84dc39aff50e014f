package ops

import (
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			slog.String("type", "sys"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", c.IP()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Log(c.UserContext(), level, "HTTP request processed", attrs...)
		return err
	}
}

// bearerAuth guards the admin routes. An empty token locks them entirely.
func bearerAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			slog.Warn("Admin API access denied",
				slog.String("type", "sys"),
				slog.String("path", c.Path()),
				slog.String("ip", c.IP()))
			return sendError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid token")
		}
		return c.Next()
	}
}
