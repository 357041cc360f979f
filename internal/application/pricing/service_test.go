package pricing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	domainpricing "github.com/jhoicas/coleccionables-api/internal/domain/pricing"
	"github.com/jhoicas/coleccionables-api/internal/infrastructure/memory"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test: catálogo de demostración del almacén en memoria
//
//	prod-figura-dragon 100000 (10%)
//	  cat-figuras ─ sub-escala-1-6 20000 (nodo 5%) ─ div-pintado-mano 5000 (manual 10%) ─ var-numerada 0
//	              └ sub-escala-1-12 8000 ─ div-acabado-mate 1500
// ──────────────────────────────────────────────────────────────────────────────

func newService(t *testing.T, policy domainpricing.Policy, cache pricing.QuoteCache) (*pricing.PricingUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewSeeded()
	uc := pricing.NewPricingUseCase(store, domainpricing.NewEngine(policy), cache, time.Minute, logger.Nop())
	return uc, store
}

func scenarioA(qty int64) pricing.LineRequest {
	return pricing.LineRequest{
		ProductID: "prod-figura-dragon",
		Selection: entity.Selection{
			CategoryID: "cat-figuras", SubCategoryID: "sub-escala-1-6",
			DivisionID: "div-pintado-mano", VariantID: "var-numerada",
		},
		Quantity: qty,
	}
}

func batchError(t *testing.T, err error) *domain.BatchError {
	t.Helper()
	var be *domain.BatchError
	require.True(t, errors.As(err, &be), "se esperaba *domain.BatchError, llegó %v", err)
	return be
}

// ──────────────────────────────────────────────────────────────────────────────
// PriceBatch
// ──────────────────────────────────────────────────────────────────────────────

func TestPriceBatch_EscenarioA(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)

	res, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{scenarioA(2)})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)

	line := res.Lines[0]
	assert.Equal(t, entity.StatePriced, line.State)
	assert.True(t, d("113500").Equal(line.UnitPrice), "unitario: %s", line.UnitPrice)
	assert.True(t, d("227000").Equal(line.LineTotal), "total: %s", line.LineTotal)
	assert.True(t, d("227000").Equal(res.Subtotal))
	assert.Equal(t, "Figura Dragón de Jade", line.ProductName)
	assert.Equal(t, "Pintado a mano", line.Selection.Division.Name)
	require.NotNil(t, line.Selection.Division.Association.StockCap)
	assert.Equal(t, int64(25), *line.Selection.Division.Association.StockCap)
}

func TestPriceBatch_DeduceAncestrosDesdeElAlmacen(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)

	res, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{{
		ProductID: "prod-figura-dragon",
		Selection: entity.Selection{VariantID: "var-numerada"},
		Quantity:  1,
	}})
	require.NoError(t, err)

	sel := res.Lines[0].Selection
	require.NotNil(t, sel.Category)
	assert.Equal(t, "cat-figuras", sel.Category.NodeID)
	assert.True(t, sel.Category.Inferred)
	assert.Equal(t, "sub-escala-1-6", sel.SubCategory.NodeID)
	assert.True(t, sel.SubCategory.Inferred)
	assert.Equal(t, "div-pintado-mano", sel.Division.NodeID)
	assert.False(t, sel.Variant.Inferred)
	assert.True(t, d("113500").Equal(res.Lines[0].UnitPrice))
}

func TestPriceBatch_SubtotalYOrden(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)

	res, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{
		scenarioA(1),
		{ProductID: "prod-carta-fenix", Quantity: 3},
		{ProductID: "prod-figura-dragon", Selection: entity.Selection{DivisionID: "div-acabado-mate"}, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)
	for i, l := range res.Lines {
		assert.Equal(t, i, l.Line)
	}
	// Carta sin descuento propio: el evento no entra en la regla histórica
	assert.True(t, d("135000").Equal(res.Lines[1].LineTotal), "carta: %s", res.Lines[1].LineTotal)
	// 90000 + 8000 + 1500 (escala 1/12 y acabado mate sin descuento)
	assert.True(t, d("99500").Equal(res.Lines[2].UnitPrice), "acabado: %s", res.Lines[2].UnitPrice)
	assert.True(t, d("348000").Equal(res.Subtotal), "subtotal: %s", res.Subtotal)
}

// Escenario D: variante de una división que no cuelga de la subcategoría elegida.
func TestPriceBatch_EscenarioD_FallaElLoteCompleto(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)

	res, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{
		scenarioA(1),
		{ProductID: "prod-figura-dragon", Selection: entity.Selection{SubCategoryID: "sub-escala-1-12", VariantID: "var-numerada"}, Quantity: 1},
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrParentMismatch)

	be := batchError(t, err)
	require.Len(t, be.Errors, 1)
	assert.Equal(t, 1, be.Errors[0].Line)
	assert.Equal(t, string(entity.LevelVariant), be.Errors[0].Err.Level)
}

func TestPriceBatch_AcumulaTodosLosErrores(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)

	_, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{
		scenarioA(1),
		{ProductID: "prod-figura-dragon", Quantity: 0},
		{ProductID: "no-existe", Quantity: 1},
		{ProductID: "prod-carta-fenix", Selection: entity.Selection{CategoryID: "cat-figuras"}, Quantity: 1},
		{Quantity: 1},
	})
	be := batchError(t, err)
	require.Len(t, be.Errors, 4)

	assert.Equal(t, 1, be.Errors[0].Line)
	assert.Equal(t, domain.KindValidation, be.Errors[0].Err.Kind)
	assert.Equal(t, "quantity", be.Errors[0].Err.Level)

	assert.Equal(t, 2, be.Errors[1].Line)
	assert.Equal(t, domain.KindNotFound, be.Errors[1].Err.Kind)

	assert.Equal(t, 3, be.Errors[2].Line)
	assert.Equal(t, domain.KindNotAssociated, be.Errors[2].Err.Kind)
	assert.Equal(t, string(entity.LevelCategory), be.Errors[2].Err.Level)

	assert.Equal(t, 4, be.Errors[3].Line)
	assert.Equal(t, "product", be.Errors[3].Err.Level)

	assert.ErrorIs(t, err, domain.ErrNotAssociated)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPriceBatch_LoteVacio(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)
	_, err := uc.PriceBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPriceBatch_PadreAusenteEnElAlmacen(t *testing.T) {
	store := memory.New()
	store.PutProduct(entity.Product{ID: "prod-1", Name: "Figura", BasePrice: d("100")})
	store.PutNode(entity.HierarchyNode{ID: "div-1", Level: entity.LevelDivision, ParentID: "sub-borrada"}, 0)
	require.NoError(t, store.PutAssociation(entity.Association{ProductID: "prod-1", Level: entity.LevelDivision, NodeID: "div-1"}))
	uc := pricing.NewPricingUseCase(store, domainpricing.NewEngine(domainpricing.DefaultPolicy()), nil, 0, logger.Nop())

	_, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{{ProductID: "prod-1", Selection: entity.Selection{DivisionID: "div-1"}, Quantity: 1}})
	be := batchError(t, err)
	require.Len(t, be.Errors, 1)
	assert.Equal(t, domain.KindNotFound, be.Errors[0].Err.Kind)
	assert.Equal(t, string(entity.LevelSubCategory), be.Errors[0].Err.Level)
	assert.Equal(t, "sub-borrada", be.Errors[0].Err.NodeID)
}

func TestPriceBatch_DescuentoDeEventoConComposicionIndependiente(t *testing.T) {
	policy := domainpricing.Policy{ComposeLevelDiscountsAlways: true, ClampPercentages: true}
	uc, _ := newService(t, policy, nil)

	res, err := uc.PriceBatch(context.Background(), []pricing.LineRequest{{ProductID: "prod-carta-fenix", Quantity: 1}})
	require.NoError(t, err)
	assert.True(t, d("20").Equal(res.Lines[0].ProductDiscountPercent))
	assert.True(t, d("36000").Equal(res.Lines[0].UnitPrice), "unitario: %s", res.Lines[0].UnitPrice)
}

func TestPriceBatchInTx_UsaLosRepositoriosDelLlamador(t *testing.T) {
	uc, store := newService(t, domainpricing.DefaultPolicy(), nil)

	res, err := uc.PriceBatchInTx(context.Background(), store.ProductRepository(), store.HierarchyRepository(), []pricing.LineRequest{scenarioA(2)})
	require.NoError(t, err)
	assert.True(t, d("227000").Equal(res.Subtotal))
}

func TestPriceBatch_Determinista(t *testing.T) {
	uc, _ := newService(t, domainpricing.DefaultPolicy(), nil)
	ctx := context.Background()

	first, err := uc.PriceBatch(ctx, []pricing.LineRequest{scenarioA(3)})
	require.NoError(t, err)
	second, err := uc.PriceBatch(ctx, []pricing.LineRequest{scenarioA(3)})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// ──────────────────────────────────────────────────────────────────────────────
// Quote y caché
// ──────────────────────────────────────────────────────────────────────────────

type mapCache struct {
	mu      sync.Mutex
	items   map[string]entity.PricedLine
	gets    int
	sets    int
	failGet bool
}

func newMapCache() *mapCache { return &mapCache{items: make(map[string]entity.PricedLine)} }

func (c *mapCache) Get(_ context.Context, key string) (*entity.PricedLine, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("redis caído")
	}
	v, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *entity.PricedLine, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = *value
	return nil
}

func TestQuote_GuardaYReutilizaLaCotizacion(t *testing.T) {
	cache := newMapCache()
	uc, _ := newService(t, domainpricing.DefaultPolicy(), cache)
	ctx := context.Background()

	first, err := uc.Quote(ctx, scenarioA(2))
	require.NoError(t, err)
	assert.True(t, d("227000").Equal(first.LineTotal))
	assert.Equal(t, 1, cache.sets)

	second, err := uc.Quote(ctx, scenarioA(2))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "la segunda cotización sale de la caché")
	assert.True(t, first.UnitPrice.Equal(second.UnitPrice))

	_, err = uc.Quote(ctx, scenarioA(3))
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets, "otra cantidad es otra clave")
}

// Un evento que empieza entre dos cotizaciones cambia la clave: la cotización cacheada
// no puede quedar por encima del precio que cobra el lote.
func TestQuote_EventoNuevoInvalidaLaCotizacionCacheada(t *testing.T) {
	cache := newMapCache()
	uc, store := newService(t, domainpricing.DefaultPolicy(), cache)
	ctx := context.Background()

	before, err := uc.Quote(ctx, scenarioA(1))
	require.NoError(t, err)
	assert.True(t, d("113500").Equal(before.UnitPrice), "unitario: %s", before.UnitPrice)

	now := time.Now()
	store.PutEvent(entity.ProductEvent{
		ID: "evt-relampago", ProductID: "prod-figura-dragon", Name: "Venta relámpago",
		DiscountPercent: d("50"), StartsAt: now.Add(-time.Minute), EndsAt: now.Add(time.Hour),
	})

	after, err := uc.Quote(ctx, scenarioA(1))
	require.NoError(t, err)
	batch, err := uc.PriceBatch(ctx, []pricing.LineRequest{scenarioA(1)})
	require.NoError(t, err)

	assert.True(t, d("73500").Equal(after.UnitPrice), "unitario con evento: %s", after.UnitPrice)
	assert.True(t, batch.Lines[0].UnitPrice.Equal(after.UnitPrice), "cotización %s vs lote %s", after.UnitPrice, batch.Lines[0].UnitPrice)
	assert.Equal(t, 2, cache.sets)
}

func TestQuote_CacheCaidaNoImpideResponder(t *testing.T) {
	cache := newMapCache()
	cache.failGet = true
	uc, _ := newService(t, domainpricing.DefaultPolicy(), cache)

	line, err := uc.Quote(context.Background(), scenarioA(1))
	require.NoError(t, err)
	assert.True(t, d("113500").Equal(line.UnitPrice))
}

func TestQuote_SeleccionInvalida(t *testing.T) {
	cache := newMapCache()
	uc, _ := newService(t, domainpricing.DefaultPolicy(), cache)

	_, err := uc.Quote(context.Background(), pricing.LineRequest{
		ProductID: "prod-figura-dragon",
		Selection: entity.Selection{SubCategoryID: "sub-escala-1-12", VariantID: "var-numerada"},
		Quantity:  1,
	})
	assert.ErrorIs(t, err, domain.ErrParentMismatch)
	assert.Equal(t, 0, cache.sets)
}
