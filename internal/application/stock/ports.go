package stock

import (
	"context"

	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad entre el libro de movimientos y el total cacheado.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}
