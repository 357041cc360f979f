package dto

import (
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// StockMovementRequest cuerpo para agregar o corregir un movimiento de stock.
type StockMovementRequest struct {
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Remarks  string `json:"remarks" validate:"max=500"`
}

// StockTotalResponse total cacheado de una entidad.
type StockTotalResponse struct {
	Kind       string `json:"kind"`
	EntityID   string `json:"entity_id"`
	TotalStock int64  `json:"total_stock"`
}

// StockMovementDTO fila del libro de stock.
type StockMovementDTO struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	EntityID    string     `json:"entity_id"`
	Quantity    int64      `json:"quantity"`
	Remarks     string     `json:"remarks"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CorrectedAt *time.Time `json:"corrected_at,omitempty"`
	CorrectedBy string     `json:"corrected_by,omitempty"`
}

// StockMovementListResponse página del libro.
type StockMovementListResponse struct {
	Items []StockMovementDTO `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockAuditResponse comparación del total cacheado contra la suma del libro.
type StockAuditResponse struct {
	Kind         string `json:"kind"`
	EntityID     string `json:"entity_id"`
	CachedTotal  int64  `json:"cached_total"`
	LedgerTotal  int64  `json:"ledger_total"`
	MovementRows int64  `json:"movement_rows"`
	Consistent   bool   `json:"consistent"`
}

// FromStockMovement mapea la entidad a su DTO.
func FromStockMovement(m *entity.StockMovement) StockMovementDTO {
	return StockMovementDTO{
		ID:          m.ID,
		Kind:        string(m.Kind),
		EntityID:    m.EntityID,
		Quantity:    m.Quantity,
		Remarks:     m.Remarks,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
		CorrectedAt: m.CorrectedAt,
		CorrectedBy: m.CorrectedBy,
	}
}

// FromStockAudit mapea la auditoría a su DTO.
func FromStockAudit(a entity.StockAudit) StockAuditResponse {
	return StockAuditResponse{
		Kind:         string(a.Ref.Kind),
		EntityID:     a.Ref.ID,
		CachedTotal:  a.CachedTotal,
		LedgerTotal:  a.LedgerTotal,
		MovementRows: a.MovementRows,
		Consistent:   a.Consistent(),
	}
}
