package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/coleccionables-api/internal/application/dto"
	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
)

// PricingHandler precio autoritativo del servidor para carrito, detalle, pedidos y facturas.
type PricingHandler struct {
	uc *pricing.PricingUseCase
}

// NewPricingHandler construye el handler.
func NewPricingHandler(uc *pricing.PricingUseCase) *PricingHandler {
	return &PricingHandler{uc: uc}
}

// Quote godoc
// @Summary      Cotizar una línea
// @Description  Resuelve la selección de niveles del producto y calcula precio unitario y total.
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        body  body  dto.QuoteRequest  true  "product_id, ids de nivel opcionales y quantity"
// @Success      200   {object}  dto.PricedLineDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/pricing/quote [post]
func (h *PricingHandler) Quote(c *fiber.Ctx) error {
	var in dto.QuoteRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	line := in.Line()
	pl, err := h.uc.Quote(c.Context(), pricing.LineRequest{
		ProductID: line.ProductID,
		Selection: line.Selection(),
		Quantity:  line.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromPricedLine(*pl))
}

// PriceBatch godoc
// @Summary      Valorar un lote de líneas
// @Description  Todas las líneas se valoran contra la misma foto del catálogo. Si alguna es inválida
//
//	el lote completo falla y se devuelven todas las líneas rechazadas.
//
// @Tags         pricing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PriceBatchRequest  true  "lines"
// @Success      200   {object}  dto.PriceBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/pricing/batch [post]
func (h *PricingHandler) PriceBatch(c *fiber.Ctx) error {
	var in dto.PriceBatchRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	lines := make([]pricing.LineRequest, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = pricing.LineRequest{ProductID: l.ProductID, Selection: l.Selection(), Quantity: l.Quantity}
	}
	res, err := h.uc.PriceBatch(c.Context(), lines)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.PriceBatchResponse{Lines: make([]dto.PricedLineDTO, len(res.Lines)), Subtotal: res.Subtotal}
	for i, pl := range res.Lines {
		out.Lines[i] = dto.FromPricedLine(pl)
	}
	return c.JSON(out)
}
