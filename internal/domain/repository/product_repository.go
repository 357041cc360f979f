package repository

import (
	"context"
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de lectura de productos para el motor de precios (DIP).
type ProductRepository interface {
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// ActiveEventDiscount devuelve el mayor descuento de evento promocional vigente en at.
	// ok=false si no hay evento activo.
	ActiveEventDiscount(ctx context.Context, productID string, at time.Time) (pct decimal.Decimal, ok bool, err error)
}
