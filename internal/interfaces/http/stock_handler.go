package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/coleccionables-api/internal/application/dto"
	"github.com/jhoicas/coleccionables-api/internal/application/stock"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// StockHandler libro de stock de productos, subcategorías, divisiones, variantes y grupos (protegido).
type StockHandler struct {
	uc *stock.LedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.LedgerUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// stockRef lee :kind y :id; responde 400 si el tipo no existe.
func stockRef(c *fiber.Ctx) (entity.StockRef, bool, error) {
	kind, err := entity.ParseStockableKind(c.Params("kind"))
	if err != nil {
		return entity.StockRef{}, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INVALID_KIND",
			Message: "tipo inválido: product, sub_category, division, variant o product_group",
		})
	}
	return entity.StockRef{Kind: kind, ID: c.Params("id")}, true, nil
}

// GetTotal godoc
// @Summary      Total de stock de una entidad
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "product | sub_category | division | variant | product_group"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200   {object}  dto.StockTotalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{kind}/{id} [get]
func (h *StockHandler) GetTotal(c *fiber.Ctx) error {
	ref, ok, err := stockRef(c)
	if !ok {
		return err
	}
	total, err := h.uc.CurrentTotal(c.Context(), ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockTotalResponse{Kind: string(ref.Kind), EntityID: ref.ID, TotalStock: total})
}

// ListMovements godoc
// @Summary      Libro de stock de una entidad
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kind    path   string  true   "tipo de entidad"
// @Param        id      path   string  true   "ID de la entidad"
// @Param        limit   query  int     false  "máximo 100 (default 20)"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200     {object}  dto.StockMovementListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/stock/{kind}/{id}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	ref, ok, err := stockRef(c)
	if !ok {
		return err
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "limit y offset deben ser números"})
	}
	if ok, err := checkStruct(c, &page); !ok {
		return err
	}
	page.DefaultPage()

	list, err := h.uc.ListMovements(c.Context(), ref, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.StockMovementListResponse{
		Items: make([]dto.StockMovementDTO, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, m := range list {
		out.Items = append(out.Items, dto.FromStockMovement(m))
	}
	return c.JSON(out)
}

// LatestMovement godoc
// @Summary      Último movimiento (el que se ofrece para corregir)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "tipo de entidad"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200   {object}  dto.StockMovementDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{kind}/{id}/movements/latest [get]
func (h *StockHandler) LatestMovement(c *fiber.Ctx) error {
	ref, ok, err := stockRef(c)
	if !ok {
		return err
	}
	m, err := h.uc.LatestMovement(c.Context(), ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStockMovement(m))
}

// Audit godoc
// @Summary      Auditar total contra el libro
// @Description  Compara el total cacheado con la suma del libro. No corrige nada.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "tipo de entidad"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200   {object}  dto.StockAuditResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{kind}/{id}/audit [get]
func (h *StockHandler) Audit(c *fiber.Ctx) error {
	ref, ok, err := stockRef(c)
	if !ok {
		return err
	}
	audit, err := h.uc.AuditTotal(c.Context(), ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStockAudit(audit))
}

// AddMovement godoc
// @Summary      Agregar stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        kind  path  string                     true  "tipo de entidad"
// @Param        id    path  string                     true  "ID de la entidad"
// @Param        body  body  dto.StockMovementRequest  true  "quantity > 0, remarks"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{kind}/{id}/movements [post]
func (h *StockHandler) AddMovement(c *fiber.Ctx) error {
	ref, ok, err := stockRef(c)
	if !ok {
		return err
	}
	var in dto.StockMovementRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	id, err := h.uc.AddMovement(c.Context(), stock.AddMovementInput{
		Kind:     ref.Kind,
		EntityID: ref.ID,
		Quantity: in.Quantity,
		Remarks:  in.Remarks,
		UserID:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "message": "movimiento registrado"})
}

// CorrectMovement godoc
// @Summary      Corregir un movimiento de stock
// @Description  Sustituye la cantidad del movimiento y ajusta el total en la misma transacción.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        kind        path  string                     true  "tipo de entidad"
// @Param        id          path  string                     true  "ID de la entidad"
// @Param        movementId  path  string                     true  "ID del movimiento"
// @Param        body        body  dto.StockMovementRequest  true  "quantity > 0, remarks"
// @Success      200         {object}  map[string]string
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Failure      503         {object}  dto.ErrorResponse
// @Router       /api/stock/{kind}/{id}/movements/{movementId} [put]
func (h *StockHandler) CorrectMovement(c *fiber.Ctx) error {
	ref, ok, err := stockRef(c)
	if !ok {
		return err
	}
	var in dto.StockMovementRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	err = h.uc.CorrectMovement(c.Context(), stock.CorrectMovementInput{
		Kind:       ref.Kind,
		EntityID:   ref.ID,
		MovementID: c.Params("movementId"),
		Quantity:   in.Quantity,
		Remarks:    in.Remarks,
		UserID:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "movimiento corregido"})
}
