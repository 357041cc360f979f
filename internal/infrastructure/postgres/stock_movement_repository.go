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

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de stock: una tabla <tipo>_stock_movements por tipo de entidad.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, %s, quantity, remarks, created_at, created_by, corrected_at, corrected_by`

func scanMovement(row pgx.Row, kind entity.StockableKind) (*entity.StockMovement, error) {
	m := &entity.StockMovement{Kind: kind}
	err := row.Scan(&m.ID, &m.EntityID, &m.Quantity, &m.Remarks, &m.CreatedAt, &m.CreatedBy, &m.CorrectedAt, &m.CorrectedBy)
	return m, err
}

// Create inserta la fila del libro.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	t, err := tablesForKind(m.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, quantity, remarks, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`, t.movements, t.ownerFK)
	_, err = r.q.Exec(ctx, query, m.ID, m.EntityID, m.Quantity, m.Remarks, m.CreatedAt, m.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento %s duplicado: %w", m.ID, domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil, nil si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, kind entity.StockableKind, id string) (*entity.StockMovement, error) {
	t, err := tablesForKind(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT `+movementColumns+` FROM %s WHERE id = $1`, t.ownerFK, t.movements)
	m, err := scanMovement(r.q.QueryRow(ctx, query, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// UpdateCorrection guarda la nueva cantidad, las observaciones y quién corrigió.
func (r *StockMovementRepo) UpdateCorrection(ctx context.Context, m *entity.StockMovement) error {
	t, err := tablesForKind(m.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE %s SET quantity = $2, remarks = $3, corrected_at = $4, corrected_by = $5
		WHERE id = $1`, t.movements)
	tag, err := r.q.Exec(ctx, query, m.ID, m.Quantity, m.Remarks, m.CorrectedAt, m.CorrectedBy)
	if err != nil {
		return fmt.Errorf("update stock movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Latest último movimiento insertado (por secuencia) o nil.
func (r *StockMovementRepo) Latest(ctx context.Context, ref entity.StockRef) (*entity.StockMovement, error) {
	t, err := tablesForKind(ref.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT `+movementColumns+` FROM %s WHERE %s = $1 ORDER BY seq DESC LIMIT 1`,
		t.ownerFK, t.movements, t.ownerFK)
	m, err := scanMovement(r.q.QueryRow(ctx, query, ref.ID), ref.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest stock movement: %w", err)
	}
	return m, nil
}

// ListByEntity lista el libro de la entidad del más reciente al más antiguo.
func (r *StockMovementRepo) ListByEntity(ctx context.Context, ref entity.StockRef, limit, offset int) ([]*entity.StockMovement, error) {
	t, err := tablesForKind(ref.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT `+movementColumns+` FROM %s WHERE %s = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`,
		t.ownerFK, t.movements, t.ownerFK)
	rows, err := r.q.Query(ctx, query, ref.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.StockMovement, error) {
		return scanMovement(row, ref.Kind)
	})
	if err != nil {
		return nil, fmt.Errorf("scan stock movements: %w", err)
	}
	return list, nil
}

// Sum suma de cantidades y número de filas del libro de la entidad.
func (r *StockMovementRepo) Sum(ctx context.Context, ref entity.StockRef) (int64, int64, error) {
	t, err := tablesForKind(ref.Kind)
	if err != nil {
		return 0, 0, err
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(quantity), 0)::BIGINT, COUNT(*) FROM %s WHERE %s = $1`, t.movements, t.ownerFK)
	var total, rows int64
	if err := r.q.QueryRow(ctx, query, ref.ID).Scan(&total, &rows); err != nil {
		return 0, 0, fmt.Errorf("sum stock movements: %w", err)
	}
	return total, rows, nil
}
