package repository

import (
	"context"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de stock (append-only
// salvo la corrección de cantidad y observaciones).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// GetByID devuelve nil, nil si el movimiento no existe en el libro de ese tipo.
	GetByID(ctx context.Context, kind entity.StockableKind, id string) (*entity.StockMovement, error)
	// UpdateCorrection persiste Quantity, Remarks, CorrectedAt y CorrectedBy.
	UpdateCorrection(ctx context.Context, movement *entity.StockMovement) error
	// Latest devuelve el último movimiento agregado de la entidad o nil.
	Latest(ctx context.Context, ref entity.StockRef) (*entity.StockMovement, error)
	ListByEntity(ctx context.Context, ref entity.StockRef, limit, offset int) ([]*entity.StockMovement, error)
	// Sum devuelve la suma de cantidades y el número de filas del libro de la entidad.
	Sum(ctx context.Context, ref entity.StockRef) (total int64, rows int64, err error)
}
