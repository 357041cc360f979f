package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID; nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, name, description, base_price, discount_percent, total_stock, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.DiscountPercent, &p.TotalStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ActiveEventDiscount mayor descuento entre los eventos vigentes en at.
func (r *ProductRepo) ActiveEventDiscount(ctx context.Context, productID string, at time.Time) (decimal.Decimal, bool, error) {
	query := `
		SELECT COALESCE(MAX(discount_percent), 0), COUNT(*)
		FROM product_events
		WHERE product_id = $1 AND starts_at <= $2 AND ends_at > $2`
	var pct decimal.Decimal
	var n int64
	if err := r.q.QueryRow(ctx, query, productID, at).Scan(&pct, &n); err != nil {
		return decimal.Zero, false, fmt.Errorf("active event discount: %w", err)
	}
	return pct, n > 0, nil
}
