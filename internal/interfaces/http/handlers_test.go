package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/coleccionables-api/internal/application/dto"
	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/application/stock"
	domainpricing "github.com/jhoicas/coleccionables-api/internal/domain/pricing"
	"github.com/jhoicas/coleccionables-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/coleccionables-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/coleccionables-api/pkg/jwt"
	"github.com/jhoicas/coleccionables-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: API completa sobre el catálogo de demostración en memoria
// ──────────────────────────────────────────────────────────────────────────────

func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewSeeded()
	pricingUC := pricing.NewPricingUseCase(store, domainpricing.NewEngine(domainpricing.DefaultPolicy()), nil, time.Minute, logger.Nop())
	ledgerUC := stock.NewLedgerUseCase(store, store.StockRepository(), store.StockMovementRepository(), logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		PricingUC: pricingUC,
		LedgerUC:  ledgerUC,
		JWTSecret: testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func lineA(qty int64) dto.PriceLineRequest {
	return dto.PriceLineRequest{
		ProductID:     "prod-figura-dragon",
		CategoryID:    "cat-figuras",
		SubCategoryID: "sub-escala-1-6",
		DivisionID:    "div-pintado-mano",
		VariantID:     "var-numerada",
		Quantity:      qty,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Precios
// ──────────────────────────────────────────────────────────────────────────────

func TestQuote_PublicaSinToken(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/pricing/quote", "", dto.QuoteRequest(lineA(2)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.PricedLineDTO
	decode(t, resp, &out)
	assert.True(t, out.UnitPrice.Equal(decimal.NewFromInt(113500)), "unitario: %s", out.UnitPrice)
	assert.True(t, out.LineTotal.Equal(decimal.NewFromInt(227000)))
	require.Len(t, out.Levels, 4)
	assert.Equal(t, "category", out.Levels[0].Level)
	require.NotNil(t, out.Levels[2].StockCap)
	assert.Equal(t, int64(25), *out.Levels[2].StockCap)
}

func TestQuote_CantidadCero_Retorna400(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/pricing/quote", "", dto.QuoteRequest(lineA(0)))

	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
}

func TestQuote_PadreIncorrecto_Retorna422ConNivel(t *testing.T) {
	app := buildAPI(t)
	req := lineA(1)
	req.SubCategoryID = "sub-escala-1-12"
	resp := call(t, app, http.MethodPost, "/api/pricing/quote", "", dto.QuoteRequest(req))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out struct {
		Code    string             `json:"code"`
		Details []dto.LineErrorDTO `json:"details"`
	}
	decode(t, resp, &out)
	assert.Equal(t, "INVALID_LINES", out.Code)
	require.Len(t, out.Details, 1)
	assert.Equal(t, "PARENT_MISMATCH", out.Details[0].Code)
}

func TestPriceBatch_RequiereToken(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/pricing/batch", "", dto.PriceBatchRequest{Lines: []dto.PriceLineRequest{lineA(1)}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPriceBatch_SubtotalYOrden(t *testing.T) {
	app := buildAPI(t)
	carta := dto.PriceLineRequest{ProductID: "prod-carta-fenix", Quantity: 1}
	resp := call(t, app, http.MethodPost, "/api/pricing/batch", pkgjwt.RoleVendedor,
		dto.PriceBatchRequest{Lines: []dto.PriceLineRequest{lineA(1), carta}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.PriceBatchResponse
	decode(t, resp, &out)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, 0, out.Lines[0].Line)
	assert.Equal(t, 1, out.Lines[1].Line)
	assert.True(t, out.Subtotal.Equal(out.Lines[0].LineTotal.Add(out.Lines[1].LineTotal)))
}

func TestPriceBatch_TodasLasLineasInvalidasSeReportan(t *testing.T) {
	app := buildAPI(t)
	malo := lineA(1)
	malo.VariantID = "var-no-existe"
	resp := call(t, app, http.MethodPost, "/api/pricing/batch", pkgjwt.RoleVendedor,
		dto.PriceBatchRequest{Lines: []dto.PriceLineRequest{lineA(1), malo, lineA(0)}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out struct {
		Details []dto.LineErrorDTO `json:"details"`
	}
	decode(t, resp, &out)
	require.Len(t, out.Details, 2)
	assert.Equal(t, 1, out.Details[0].Line)
	assert.Equal(t, "variant", out.Details[0].Level)
	assert.Equal(t, 2, out.Details[1].Line)
	assert.Equal(t, "quantity", out.Details[1].Level)
}

func TestPriceBatch_LoteVacio_Retorna400(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/pricing/batch", pkgjwt.RoleVendedor, dto.PriceBatchRequest{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_AgregarYCorregir(t *testing.T) {
	app := buildAPI(t)
	base := "/api/stock/division/div-pintado-mano"

	resp := call(t, app, http.MethodPost, base+"/movements", pkgjwt.RoleBodeguero, dto.StockMovementRequest{Quantity: 40})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, base+"/movements", pkgjwt.RoleBodeguero, dto.StockMovementRequest{Quantity: 10, Remarks: "lote 2"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]string
	decode(t, resp, &created)
	require.NotEmpty(t, created["id"])

	resp = call(t, app, http.MethodGet, base+"/movements/latest", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var latest dto.StockMovementDTO
	decode(t, resp, &latest)
	assert.Equal(t, created["id"], latest.ID)

	resp = call(t, app, http.MethodPut, base+"/movements/"+created["id"], pkgjwt.RoleAdmin, dto.StockMovementRequest{Quantity: 15})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, base, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var total dto.StockTotalResponse
	decode(t, resp, &total)
	assert.Equal(t, int64(55), total.TotalStock)

	resp = call(t, app, http.MethodGet, base+"/movements?limit=1", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.StockMovementListResponse
	decode(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(15), list.Items[0].Quantity)
	assert.NotNil(t, list.Items[0].CorrectedAt)

	resp = call(t, app, http.MethodGet, base+"/audit", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audit dto.StockAuditResponse
	decode(t, resp, &audit)
	assert.True(t, audit.Consistent)
	assert.Equal(t, int64(2), audit.MovementRows)
}

func TestStock_VendedorNoPuedeEscribir(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/stock/product/prod-figura-dragon/movements", pkgjwt.RoleVendedor, dto.StockMovementRequest{Quantity: 1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStock_AuditoriaSoloAdmin(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodGet, "/api/stock/product/prod-figura-dragon/audit", pkgjwt.RoleBodeguero, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStock_TipoDesconocido_Retorna400(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodGet, "/api/stock/category/cat-figuras", pkgjwt.RoleAdmin, nil)

	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_KIND", out.Code)
}

func TestStock_EntidadInexistente_Retorna404(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/stock/variant/var-no-existe/movements", pkgjwt.RoleAdmin, dto.StockMovementRequest{Quantity: 3})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStock_CantidadNoPositiva_Retorna400(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodPost, "/api/stock/product/prod-figura-dragon/movements", pkgjwt.RoleAdmin, dto.StockMovementRequest{Quantity: -4})

	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
}

func TestStock_SinMovimientos_Latest404(t *testing.T) {
	app := buildAPI(t)
	resp := call(t, app, http.MethodGet, "/api/stock/product_group/grupo-temporada-1/movements/latest", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
