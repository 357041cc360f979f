package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// El total vive en la columna total_stock de cada tabla con stock.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetTotal total cacheado; ErrNotFound si la entidad no existe.
func (r *StockRepo) GetTotal(ctx context.Context, ref entity.StockRef) (int64, error) {
	return r.getTotal(ctx, ref, false)
}

// GetTotalForUpdate obtiene el total y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *StockRepo) GetTotalForUpdate(ctx context.Context, ref entity.StockRef) (int64, error) {
	return r.getTotal(ctx, ref, true)
}

func (r *StockRepo) getTotal(ctx context.Context, ref entity.StockRef, lock bool) (int64, error) {
	t, err := tablesForKind(ref.Kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT total_stock FROM %s WHERE id = $1`, t.aggregate)
	if lock {
		query += ` FOR UPDATE`
	}
	var total int64
	if err := r.q.QueryRow(ctx, query, ref.ID).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get total %s: %w", ref, err)
	}
	return total, nil
}

// AddToTotal incremento atómico en SQL; devuelve el total resultante.
func (r *StockRepo) AddToTotal(ctx context.Context, ref entity.StockRef, delta int64) (int64, error) {
	t, err := tablesForKind(ref.Kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		UPDATE %s SET total_stock = total_stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING total_stock`, t.aggregate)
	var total int64
	if err := r.q.QueryRow(ctx, query, ref.ID, delta).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("add to total %s: %w", ref, err)
	}
	return total, nil
}
