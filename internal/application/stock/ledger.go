package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
)

// LedgerUseCase mantiene el libro de stock y el total cacheado de Product, SubCategory,
// Division, Variant y ProductGroup. Toda mutación bloquea la fila del total (SELECT FOR UPDATE)
// dentro de la misma transacción que escribe el libro.
type LedgerUseCase struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	movRepo   repository.StockMovementRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewLedgerUseCase construye el caso de uso. stockRepo y movRepo se usan para lecturas fuera de tx.
func NewLedgerUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	log *logger.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:  txRunner,
		stockRepo: stockRepo,
		movRepo:   movRepo,
		log:       log.Component("stock_ledger"),
		now:       time.Now,
	}
}

// AddMovementInput entrada para agregar stock a una entidad.
type AddMovementInput struct {
	Kind     entity.StockableKind
	EntityID string
	Quantity int64
	Remarks  string
	UserID   string
}

// CorrectMovementInput entrada para corregir la cantidad de un movimiento existente.
type CorrectMovementInput struct {
	Kind       entity.StockableKind
	EntityID   string
	MovementID string
	Quantity   int64
	Remarks    string
	UserID     string
}

// AddMovement agrega una fila al libro y suma la cantidad al total, en una sola transacción.
// Si la entidad no existe el error cumple errors.Is con ErrInvalidInput y con ErrNotFound.
func (uc *LedgerUseCase) AddMovement(ctx context.Context, in AddMovementInput) (string, error) {
	ref := entity.StockRef{Kind: in.Kind, ID: in.EntityID}
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if in.Quantity <= 0 {
		return "", domain.ErrInvalidInput
	}

	now := uc.now()
	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		Kind:      in.Kind,
		EntityID:  in.EntityID,
		Quantity:  in.Quantity,
		Remarks:   in.Remarks,
		CreatedAt: now,
		CreatedBy: in.UserID,
	}

	var newTotal int64
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error {
		// Bloquea la fila del total para serializar escrituras sobre la misma entidad
		if _, err := stockRepo.GetTotalForUpdate(ctx, ref); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("entidad %s: %w: %w", ref, domain.ErrInvalidInput, err)
			}
			return err
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		total, err := stockRepo.AddToTotal(ctx, ref, in.Quantity)
		if err != nil {
			return err
		}
		newTotal = total
		return nil
	})
	if err != nil {
		return "", err
	}

	uc.log.Info().
		Str("kind", string(in.Kind)).
		Str("entity_id", in.EntityID).
		Str("movement_id", mov.ID).
		Int64("quantity", in.Quantity).
		Int64("total_stock", newTotal).
		Msg("movimiento de stock agregado")
	return mov.ID, nil
}

// CorrectMovement sustituye la cantidad de un movimiento: total -= anterior; guarda; total += nueva.
// Todo ocurre en la misma transacción; si algo falla no queda nada aplicado.
func (uc *LedgerUseCase) CorrectMovement(ctx context.Context, in CorrectMovementInput) error {
	ref := entity.StockRef{Kind: in.Kind, ID: in.EntityID}
	if err := ref.Validate(); err != nil {
		return err
	}
	if in.MovementID == "" || in.Quantity <= 0 {
		return domain.ErrInvalidInput
	}

	now := uc.now()
	var oldQty, newTotal int64
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error {
		if _, err := stockRepo.GetTotalForUpdate(ctx, ref); err != nil {
			return err
		}
		mov, err := movRepo.GetByID(ctx, in.Kind, in.MovementID)
		if err != nil {
			return err
		}
		if mov == nil || mov.EntityID != in.EntityID {
			return domain.ErrNotFound
		}
		oldQty = mov.Quantity

		if _, err := stockRepo.AddToTotal(ctx, ref, -oldQty); err != nil {
			return err
		}
		mov.Quantity = in.Quantity
		mov.Remarks = in.Remarks
		mov.CorrectedAt = &now
		mov.CorrectedBy = in.UserID
		if err := movRepo.UpdateCorrection(ctx, mov); err != nil {
			return err
		}
		total, err := stockRepo.AddToTotal(ctx, ref, in.Quantity)
		if err != nil {
			return err
		}
		newTotal = total
		return nil
	})
	if err != nil {
		return err
	}

	uc.log.Info().
		Str("kind", string(in.Kind)).
		Str("entity_id", in.EntityID).
		Str("movement_id", in.MovementID).
		Int64("old_quantity", oldQty).
		Int64("new_quantity", in.Quantity).
		Int64("total_stock", newTotal).
		Msg("movimiento de stock corregido")
	return nil
}

// CurrentTotal devuelve el total cacheado; no vuelve a sumar el libro.
func (uc *LedgerUseCase) CurrentTotal(ctx context.Context, ref entity.StockRef) (int64, error) {
	if err := ref.Validate(); err != nil {
		return 0, err
	}
	return uc.stockRepo.GetTotal(ctx, ref)
}

// LatestMovement devuelve el último movimiento agregado (el único que la UI ofrece corregir).
func (uc *LedgerUseCase) LatestMovement(ctx context.Context, ref entity.StockRef) (*entity.StockMovement, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if _, err := uc.stockRepo.GetTotal(ctx, ref); err != nil {
		return nil, err
	}
	mov, err := uc.movRepo.Latest(ctx, ref)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}

// ListMovements lista el libro de la entidad, del más reciente al más antiguo.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, ref entity.StockRef, limit, offset int) ([]*entity.StockMovement, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := uc.stockRepo.GetTotal(ctx, ref); err != nil {
		return nil, err
	}
	return uc.movRepo.ListByEntity(ctx, ref, limit, offset)
}

// AuditTotal compara el total cacheado con la suma del libro dentro de una transacción.
// Solo informa: no corrige el agregado.
func (uc *LedgerUseCase) AuditTotal(ctx context.Context, ref entity.StockRef) (entity.StockAudit, error) {
	if err := ref.Validate(); err != nil {
		return entity.StockAudit{}, err
	}
	audit := entity.StockAudit{Ref: ref}
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error {
		cached, err := stockRepo.GetTotal(ctx, ref)
		if err != nil {
			return err
		}
		sum, rows, err := movRepo.Sum(ctx, ref)
		if err != nil {
			return err
		}
		audit.CachedTotal, audit.LedgerTotal, audit.MovementRows = cached, sum, rows
		return nil
	})
	if err != nil {
		return entity.StockAudit{}, err
	}
	if !audit.Consistent() {
		uc.log.Warn().
			Str("kind", string(ref.Kind)).
			Str("entity_id", ref.ID).
			Int64("cached_total", audit.CachedTotal).
			Int64("ledger_total", audit.LedgerTotal).
			Msg("total de stock no coincide con el libro")
	}
	return audit, nil
}
