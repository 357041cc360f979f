package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
)

// RequestLogger registra cada petición con zerolog: método, ruta, estado y duración.
func RequestLogger(log *logger.Logger) fiber.Handler {
	httpLog := log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		ev := httpLog.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = httpLog.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			ev = httpLog.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("petición HTTP")
		return err
	}
}
