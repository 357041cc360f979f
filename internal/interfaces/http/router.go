package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/application/stock"
	"github.com/jhoicas/coleccionables-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PricingUC *pricing.PricingUseCase
	LedgerUC  *stock.LedgerUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	pricingHandler := NewPricingHandler(deps.PricingUC)

	// Cotización de carrito y detalle (público)
	api.Post("/pricing/quote", pricingHandler.Quote)

	// Rutas protegidas (requieren Bearer Token)
	auth := AuthMiddleware(deps.JWTSecret)

	// Pedidos y facturas valoran su lote completo
	api.Post("/pricing/batch", auth, pricingHandler.PriceBatch)

	// Stock: lectura para cualquier usuario autenticado; escritura admin|bodeguero; auditoría admin
	stockGroup := api.Group("/stock", auth)
	stockHandler := NewStockHandler(deps.LedgerUC)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	stockGroup.Get("/:kind/:id", stockHandler.GetTotal)
	stockGroup.Get("/:kind/:id/movements", stockHandler.ListMovements)
	stockGroup.Get("/:kind/:id/movements/latest", stockHandler.LatestMovement)
	stockGroup.Get("/:kind/:id/audit", RequireRole(jwt.RoleAdmin), stockHandler.Audit)
	stockGroup.Post("/:kind/:id/movements", writers, stockHandler.AddMovement)
	stockGroup.Put("/:kind/:id/movements/:movementId", writers, stockHandler.CorrectMovement)
}
