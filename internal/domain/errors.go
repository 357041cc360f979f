package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrNotAssociated  = errors.New("el nodo no está asociado al producto")
	ErrParentMismatch = errors.New("el padre del nodo no coincide con el nivel superior")
	ErrTransaction    = errors.New("la transacción no pudo completarse")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
)

// LevelErrorKind clasifica un fallo de resolución de jerarquía.
type LevelErrorKind string

const (
	KindNotAssociated  LevelErrorKind = "NOT_ASSOCIATED"
	KindParentMismatch LevelErrorKind = "PARENT_MISMATCH"
	KindNotFound       LevelErrorKind = "NOT_FOUND"
	KindValidation     LevelErrorKind = "VALIDATION"
)

// LevelError identifica el nivel (y el nodo) que invalidó una selección.
// Level usa el nombre del nivel ("category", "sub_category", ...) o "quantity"/"product"
// cuando el fallo no es de jerarquía.
type LevelError struct {
	Level  string
	NodeID string
	Kind   LevelErrorKind
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Level, e.NodeID, e.Unwrap().Error())
}

// Unwrap devuelve el error centinela del tipo de fallo.
func (e *LevelError) Unwrap() error {
	switch e.Kind {
	case KindNotAssociated:
		return ErrNotAssociated
	case KindParentMismatch:
		return ErrParentMismatch
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrInvalidInput
	}
}

// LineError asocia un LevelError con la posición de la línea dentro del lote.
type LineError struct {
	Line int
	Err  *LevelError
}

func (e *LineError) Error() string {
	return fmt.Sprintf("línea %d: %s", e.Line, e.Err.Error())
}

func (e *LineError) Unwrap() error { return e.Err }

// BatchError agrupa todos los errores de un lote de precios. Si existe, el lote completo falla.
type BatchError struct {
	Errors []*LineError
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 0 {
		return "lote rechazado"
	}
	if len(e.Errors) == 1 {
		return "lote rechazado: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("lote rechazado: %d líneas inválidas (primera: %s)", len(e.Errors), e.Errors[0].Error())
}

// Unwrap permite errors.Is/As sobre cualquiera de las líneas.
func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, le := range e.Errors {
		out[i] = le
	}
	return out
}
