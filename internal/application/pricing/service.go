package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/hierarchy"
	domainpricing "github.com/jhoicas/coleccionables-api/internal/domain/pricing"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// LineRequest línea a valorar: producto, selección opcional por nivel y cantidad.
type LineRequest struct {
	ProductID string
	Selection entity.Selection
	Quantity  int64
}

// BatchResult lote valorado completo. Solo existe si todas las líneas resolvieron.
type BatchResult struct {
	Lines    []entity.PricedLine
	Subtotal decimal.Decimal
}

// PricingUseCase orquesta resolvedor y motor de descuentos sobre lotes de líneas.
type PricingUseCase struct {
	txRunner TxRunner
	engine   *domainpricing.Engine
	cache    QuoteCache
	cacheTTL time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewPricingUseCase construye el caso de uso. cache puede ser nil (sin caché de cotizaciones).
func NewPricingUseCase(
	txRunner TxRunner,
	engine *domainpricing.Engine,
	cache QuoteCache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *PricingUseCase {
	return &PricingUseCase{
		txRunner: txRunner,
		engine:   engine,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log.Component("pricing"),
		now:      time.Now,
	}
}

// PriceBatch valora todas las líneas dentro de una transacción de solo lectura.
// Los errores de línea se acumulan en un *domain.BatchError; si hay alguno no se devuelve resultado.
func (uc *PricingUseCase) PriceBatch(ctx context.Context, lines []LineRequest) (*BatchResult, error) {
	var res *BatchResult
	err := uc.txRunner.RunPricing(ctx, func(
		productRepo repository.ProductRepository,
		hierarchyRepo repository.HierarchyRepository,
	) error {
		r, err := uc.PriceBatchInTx(ctx, productRepo, hierarchyRepo, lines)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PriceBatchInTx igual que PriceBatch pero con los repositorios de la transacción del llamador
// (creación de pedido o factura).
func (uc *PricingUseCase) PriceBatchInTx(
	ctx context.Context,
	productRepo repository.ProductRepository,
	hierarchyRepo repository.HierarchyRepository,
	lines []LineRequest,
) (*BatchResult, error) {
	return uc.priceBatchAt(ctx, productRepo, hierarchyRepo, lines, uc.now())
}

func (uc *PricingUseCase) priceBatchAt(
	ctx context.Context,
	productRepo repository.ProductRepository,
	hierarchyRepo repository.HierarchyRepository,
	lines []LineRequest,
	at time.Time,
) (*BatchResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("lote vacío: %w", domain.ErrInvalidInput)
	}

	views := make(map[string]*entity.ProductHierarchy)
	priced := make([]entity.PricedLine, 0, len(lines))
	var lineErrs []*domain.LineError

	for i, line := range lines {
		pl, levelErr, err := uc.priceLine(ctx, productRepo, hierarchyRepo, views, line, at)
		if err != nil {
			return nil, err
		}
		if levelErr != nil {
			lineErrs = append(lineErrs, &domain.LineError{Line: i, Err: levelErr})
			continue
		}
		pl.Line = i
		priced = append(priced, pl)
	}

	if len(lineErrs) > 0 {
		uc.log.Debug().Int("lines", len(lines)).Int("rejected", len(lineErrs)).Msg("lote de precios rechazado")
		return nil, &domain.BatchError{Errors: lineErrs}
	}

	subtotal := decimal.Zero
	for _, pl := range priced {
		subtotal = subtotal.Add(pl.LineTotal)
	}
	return &BatchResult{Lines: priced, Subtotal: subtotal.Round(2)}, nil
}

// Quote valora una sola línea para carrito o detalle, pasando por la caché si está configurada.
// La clave incluye el descuento de evento vigente, así que una cotización cacheada nunca
// sobrevive al inicio o fin de un evento. Un fallo de la caché no impide responder.
func (uc *PricingUseCase) Quote(ctx context.Context, line LineRequest) (*entity.PricedLine, error) {
	if uc.cache == nil {
		res, err := uc.PriceBatch(ctx, []LineRequest{line})
		if err != nil {
			return nil, err
		}
		return &res.Lines[0], nil
	}

	var out *entity.PricedLine
	err := uc.txRunner.RunPricing(ctx, func(
		productRepo repository.ProductRepository,
		hierarchyRepo repository.HierarchyRepository,
	) error {
		at := uc.now()
		eventPct, _, err := productRepo.ActiveEventDiscount(ctx, line.ProductID, at)
		if err != nil {
			return fmt.Errorf("event discount: %w", err)
		}
		key := uc.quoteKey(line, eventPct)

		cached, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("caché de cotizaciones no disponible")
		} else if ok {
			out = cached
			return nil
		}

		res, err := uc.priceBatchAt(ctx, productRepo, hierarchyRepo, []LineRequest{line}, at)
		if err != nil {
			return err
		}
		pl := res.Lines[0]
		if err := uc.cache.Set(ctx, key, &pl, uc.cacheTTL); err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar la cotización")
		}
		out = &pl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// priceLine devuelve un LevelError para fallos de validación de la línea y error para fallos de
// infraestructura, que abortan el lote.
func (uc *PricingUseCase) priceLine(
	ctx context.Context,
	productRepo repository.ProductRepository,
	hierarchyRepo repository.HierarchyRepository,
	views map[string]*entity.ProductHierarchy,
	line LineRequest,
	at time.Time,
) (entity.PricedLine, *domain.LevelError, error) {
	if line.Quantity <= 0 {
		return entity.PricedLine{}, &domain.LevelError{Level: "quantity", Kind: domain.KindValidation}, nil
	}
	if line.ProductID == "" {
		return entity.PricedLine{}, &domain.LevelError{Level: "product", Kind: domain.KindValidation}, nil
	}

	view, ok := views[line.ProductID]
	if !ok {
		product, err := productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return entity.PricedLine{}, nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return entity.PricedLine{}, &domain.LevelError{Level: "product", NodeID: line.ProductID, Kind: domain.KindNotFound}, nil
		}
		view, err = LoadHierarchy(ctx, hierarchyRepo, product)
		if err != nil {
			return entity.PricedLine{}, nil, err
		}
		views[line.ProductID] = view
	}

	resolved, err := hierarchy.Resolve(view, line.Selection)
	if err != nil {
		var le *domain.LevelError
		if errors.As(err, &le) {
			return entity.PricedLine{}, le, nil
		}
		return entity.PricedLine{}, nil, err
	}

	eventPct, _, err := productRepo.ActiveEventDiscount(ctx, line.ProductID, at)
	if err != nil {
		return entity.PricedLine{}, nil, fmt.Errorf("event discount: %w", err)
	}
	return uc.engine.PriceLine(view.Product, resolved, eventPct, line.Quantity), nil, nil
}

// LoadHierarchy arma la vista del producto: asociaciones con sus nodos y, subiendo por los
// padres, todos los ancestros que existan en el almacén.
func LoadHierarchy(ctx context.Context, repo repository.HierarchyRepository, product *entity.Product) (*entity.ProductHierarchy, error) {
	view := entity.NewProductHierarchy(product)
	assocs, err := repo.ListAssociations(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}
	for _, a := range assocs {
		view.AddAssociation(a.Association, a.Node)
	}

	// Cada vuelta sube al menos un nivel; los padres ausentes se dejan para que el
	// resolvedor los reporte como NotFound.
	absent := make(map[entity.Level]map[string]bool)
	for range entity.Levels {
		pending := false
		for level, ids := range view.MissingParents() {
			ids = filterAbsent(absent[level], ids)
			if len(ids) == 0 {
				continue
			}
			pending = true
			nodes, err := repo.GetNodes(ctx, level, ids)
			if err != nil {
				return nil, fmt.Errorf("get %s nodes: %w", level, err)
			}
			found := make(map[string]bool, len(nodes))
			for _, n := range nodes {
				view.AddNode(n)
				found[n.ID] = true
			}
			for _, id := range ids {
				if !found[id] {
					if absent[level] == nil {
						absent[level] = make(map[string]bool)
					}
					absent[level][id] = true
				}
			}
		}
		if !pending {
			break
		}
	}
	return view, nil
}

func filterAbsent(absent map[string]bool, ids []string) []string {
	if len(absent) == 0 {
		return ids
	}
	out := ids[:0:0]
	for _, id := range ids {
		if !absent[id] {
			out = append(out, id)
		}
	}
	return out
}

// quoteKey identifica la cotización por producto, selección, cantidad, descuento de evento
// vigente y política activa.
func (uc *PricingUseCase) quoteKey(line LineRequest, eventPct decimal.Decimal) string {
	p := uc.engine.Policy()
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s|%t|%t",
		line.ProductID,
		line.Selection.CategoryID, line.Selection.SubCategoryID,
		line.Selection.DivisionID, line.Selection.VariantID,
		line.Quantity, eventPct.String(), p.ComposeLevelDiscountsAlways, p.ClampPercentages)
	sum := sha256.Sum256([]byte(raw))
	return "quote:" + hex.EncodeToString(sum[:])
}
