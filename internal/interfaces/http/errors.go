package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/coleccionables-api/internal/application/dto"
	"github.com/jhoicas/coleccionables-api/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP.
//   - BatchError → 422 con una entrada por línea rechazada.
//   - ErrNotFound → 404, ErrInvalidInput → 400, ErrTransaction → 503.
func writeError(c *fiber.Ctx, err error) error {
	var be *domain.BatchError
	switch {
	case errors.As(err, &be):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "INVALID_LINES",
			Message: "una o más líneas no son válidas; no se valoró ninguna",
			Details: dto.FromBatchError(be),
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrTransaction):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TRANSACTION_FAILED", Message: "la operación no pudo confirmarse, intente de nuevo"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
