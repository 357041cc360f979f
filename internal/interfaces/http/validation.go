package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/coleccionables-api/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores usan el nombre JSON del campo
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// bindAndValidate parsea el cuerpo JSON y valida las etiquetas validate.
// Si falla ya deja escrita la respuesta 400 y devuelve false.
func bindAndValidate(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return checkStruct(c, out)
}

func checkStruct(c *fiber.Ctx, in any) (bool, error) {
	err := validate.Struct(in)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	details := make([]dto.FieldErrorDTO, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.FieldErrorDTO{Field: fieldPath(fe), Message: validationMessage(fe)})
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: details,
	})
}

// fieldPath quita el nombre del struct raíz: "PriceBatchRequest.lines[0].product_id" → "lines[0].product_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obligatorio"
	case "min":
		if fe.Kind() == reflect.String {
			return "debe tener al menos " + fe.Param() + " caracteres"
		}
		return "debe ser al menos " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "debe tener como máximo " + fe.Param() + " caracteres"
		}
		return "debe ser como máximo " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "gte":
		return "debe ser mayor o igual que " + fe.Param()
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	default:
		return "valor inválido"
	}
}
