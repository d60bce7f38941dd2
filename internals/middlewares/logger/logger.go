package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"wasitku_backend/internals/configs"
)

// LoggerMiddleware writes one access line per request in the app time zone.
func LoggerMiddleware() fiber.Handler {
	tz := "UTC"
	if configs.AppLocation != nil {
		tz = configs.AppLocation.String()
	}
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   tz,
		Format:     "[${time}] ${ip} - ${method} ${path} - ${status} - ${latency}\n",
	})
}
