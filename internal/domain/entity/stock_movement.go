package entity

import (
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain"
)

// StockableKind tipo de entidad que posee libro de stock y total cacheado.
type StockableKind string

const (
	StockableProduct      StockableKind = "product"
	StockableSubCategory  StockableKind = "sub_category"
	StockableDivision     StockableKind = "division"
	StockableVariant      StockableKind = "variant"
	StockableProductGroup StockableKind = "product_group"
)

// StockableKinds todas las clases de entidad con stock.
var StockableKinds = [...]StockableKind{
	StockableProduct, StockableSubCategory, StockableDivision, StockableVariant, StockableProductGroup,
}

// ParseStockableKind valida el tipo recibido del exterior.
func ParseStockableKind(s string) (StockableKind, error) {
	for _, k := range StockableKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", domain.ErrInvalidInput
}

// StockRef referencia a la entidad dueña de un libro de stock.
type StockRef struct {
	Kind StockableKind
	ID   string
}

// Validate verifica tipo conocido e id no vacío.
func (r StockRef) Validate() error {
	if _, err := ParseStockableKind(string(r.Kind)); err != nil {
		return err
	}
	if r.ID == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

func (r StockRef) String() string { return string(r.Kind) + ":" + r.ID }

// StockMovement fila del libro de stock. Inmutable salvo por la corrección de cantidad/observaciones.
type StockMovement struct {
	ID          string
	Kind        StockableKind
	EntityID    string
	Quantity    int64
	Remarks     string
	CreatedAt   time.Time
	CreatedBy   string
	CorrectedAt *time.Time
	CorrectedBy string
}

// Ref devuelve la entidad dueña del movimiento.
func (m *StockMovement) Ref() StockRef { return StockRef{Kind: m.Kind, ID: m.EntityID} }

// StockAudit compara el total cacheado con la suma del libro.
type StockAudit struct {
	Ref          StockRef
	CachedTotal  int64
	LedgerTotal  int64
	MovementRows int64
}

// Consistent indica si el agregado coincide con el libro.
func (a StockAudit) Consistent() bool { return a.CachedTotal == a.LedgerTotal }
