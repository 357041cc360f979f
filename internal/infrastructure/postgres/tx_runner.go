package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/application/stock"
	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner and pricing.TxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)
var _ pricing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los fallos de Begin/Commit se devuelven envueltos en domain.ErrTransaction y no se reintentan.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos del libro de stock atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewStockMovementRepository(tx), NewStockRepository(tx))
	})
}

// RunPricing abre una transacción de solo lectura en repeatable read para valorar un lote completo.
func (r *TxRunner) RunPricing(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	hierarchyRepo repository.HierarchyRepository,
) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return r.inTx(ctx, opts, func(tx pgx.Tx) error {
		return fn(NewProductRepository(tx), NewHierarchyRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrTransaction, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %w", domain.ErrTransaction, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", domain.ErrTransaction, err)
	}
	return nil
}
