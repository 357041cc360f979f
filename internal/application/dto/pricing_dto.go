package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// PriceLineRequest una línea: producto, ids de nivel opcionales y cantidad.
type PriceLineRequest struct {
	ProductID     string `json:"product_id" validate:"max=64"`
	CategoryID    string `json:"category_id,omitempty" validate:"max=64"`
	SubCategoryID string `json:"sub_category_id,omitempty" validate:"max=64"`
	DivisionID    string `json:"division_id,omitempty" validate:"max=64"`
	VariantID     string `json:"variant_id,omitempty" validate:"max=64"`
	Quantity      int64  `json:"quantity"`
}

// Selection ids de nivel como selección de dominio.
func (r PriceLineRequest) Selection() entity.Selection {
	return entity.Selection{
		CategoryID:    r.CategoryID,
		SubCategoryID: r.SubCategoryID,
		DivisionID:    r.DivisionID,
		VariantID:     r.VariantID,
	}
}

// QuoteRequest cotización de una sola línea (carrito, detalle de producto).
type QuoteRequest struct {
	ProductID     string `json:"product_id" validate:"required,max=64"`
	CategoryID    string `json:"category_id,omitempty" validate:"max=64"`
	SubCategoryID string `json:"sub_category_id,omitempty" validate:"max=64"`
	DivisionID    string `json:"division_id,omitempty" validate:"max=64"`
	VariantID     string `json:"variant_id,omitempty" validate:"max=64"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
}

// Line convierte la cotización en una línea de lote.
func (r QuoteRequest) Line() PriceLineRequest {
	return PriceLineRequest(r)
}

// PriceBatchRequest lote de líneas de un pedido o factura.
// La validez de cada línea la decide el servicio, que reporta todas las líneas inválidas juntas.
type PriceBatchRequest struct {
	Lines []PriceLineRequest `json:"lines" validate:"required,min=1,max=200,dive"`
}

// ResolvedLevelDTO nivel resuelto para el snapshot de la línea.
type ResolvedLevelDTO struct {
	Level           string          `json:"level"`
	NodeID          string          `json:"node_id"`
	Name            string          `json:"name"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Inferred        bool            `json:"inferred"`
	Associated      bool            `json:"associated"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Portion         decimal.Decimal `json:"portion"`
	StockCap        *int64          `json:"stock_cap,omitempty"`
}

// PricedLineDTO línea valorada.
type PricedLineDTO struct {
	Line                   int                `json:"line"`
	ProductID              string             `json:"product_id"`
	ProductName            string             `json:"product_name"`
	ProductDiscountPercent decimal.Decimal    `json:"product_discount_percent"`
	ProductPortion         decimal.Decimal    `json:"product_portion"`
	Levels                 []ResolvedLevelDTO `json:"levels"`
	Quantity               int64              `json:"quantity"`
	UnitPrice              decimal.Decimal    `json:"unit_price"`
	LineTotal              decimal.Decimal    `json:"line_total"`
	State                  string             `json:"state"`
}

// PriceBatchResponse lote valorado.
type PriceBatchResponse struct {
	Lines    []PricedLineDTO `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// LineErrorDTO error de una línea del lote, con el nivel culpable.
type LineErrorDTO struct {
	Line    int    `json:"line"`
	Level   string `json:"level"`
	NodeID  string `json:"node_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromPricedLine arma la respuesta con los niveles en orden category → variant.
func FromPricedLine(pl entity.PricedLine) PricedLineDTO {
	out := PricedLineDTO{
		Line:                   pl.Line,
		ProductID:              pl.ProductID,
		ProductName:            pl.ProductName,
		ProductDiscountPercent: pl.ProductDiscountPercent,
		ProductPortion:         pl.ProductPortion,
		Levels:                 make([]ResolvedLevelDTO, 0, len(entity.Levels)),
		Quantity:               pl.Quantity,
		UnitPrice:              pl.UnitPrice,
		LineTotal:              pl.LineTotal,
		State:                  string(pl.State),
	}
	for _, level := range entity.Levels {
		rl := pl.Selection.Get(level)
		if rl == nil {
			continue
		}
		lv := ResolvedLevelDTO{
			Level:           string(level),
			NodeID:          rl.NodeID,
			Name:            rl.Name,
			BasePrice:       rl.BasePrice,
			Inferred:        rl.Inferred,
			Associated:      rl.Association != nil,
			DiscountPercent: rl.DiscountPercent,
			Portion:         rl.Portion,
		}
		if rl.Association != nil {
			lv.StockCap = rl.Association.StockCap
		}
		out.Levels = append(out.Levels, lv)
	}
	return out
}

// FromBatchError una entrada por línea rechazada.
func FromBatchError(be *domain.BatchError) []LineErrorDTO {
	out := make([]LineErrorDTO, 0, len(be.Errors))
	for _, le := range be.Errors {
		out = append(out, LineErrorDTO{
			Line:    le.Line,
			Level:   le.Err.Level,
			NodeID:  le.Err.NodeID,
			Code:    string(le.Err.Kind),
			Message: le.Err.Unwrap().Error(),
		})
	}
	return out
}
