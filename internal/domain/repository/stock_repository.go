package repository

import (
	"context"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// StockRepository define el puerto del total de stock cacheado por entidad.
// Usado dentro de transacciones para garantizar consistencia con el libro.
type StockRepository interface {
	// GetTotal devuelve domain.ErrNotFound si la entidad no existe.
	GetTotal(ctx context.Context, ref entity.StockRef) (int64, error)
	// GetTotalForUpdate igual que GetTotal pero bloquea la fila (SELECT FOR UPDATE).
	GetTotalForUpdate(ctx context.Context, ref entity.StockRef) (int64, error)
	// AddToTotal suma delta (puede ser negativo) y devuelve el nuevo total.
	AddToTotal(ctx context.Context, ref entity.StockRef, delta int64) (int64, error)
}
