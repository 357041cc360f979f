package entity

import (
	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Association vincula un producto con un nodo de un nivel (tabla pivote product_<nivel>).
// UseNodeDiscount=true toma el descuento propio del nodo; si no, ManualDiscountPercent.
type Association struct {
	ProductID             string
	Level                 Level
	NodeID                string
	UseNodeDiscount       bool
	ManualDiscountPercent decimal.Decimal
	StockCap              *int64 // tope de stock opcional por asociación
}

// NewAssociation construye una asociación validada.
func NewAssociation(productID string, level Level, nodeID string, useNodeDiscount bool, manual decimal.Decimal, stockCap *int64) (Association, error) {
	a := Association{
		ProductID:             productID,
		Level:                 level,
		NodeID:                nodeID,
		UseNodeDiscount:       useNodeDiscount,
		ManualDiscountPercent: manual,
		StockCap:              stockCap,
	}
	if err := a.Validate(); err != nil {
		return Association{}, err
	}
	return a, nil
}

// Validate verifica ids, nivel, descuento manual no negativo y tope no negativo.
func (a Association) Validate() error {
	if a.ProductID == "" || a.NodeID == "" || !a.Level.Valid() {
		return domain.ErrInvalidInput
	}
	if a.ManualDiscountPercent.IsNegative() {
		return domain.ErrInvalidInput
	}
	if a.StockCap != nil && *a.StockCap < 0 {
		return domain.ErrInvalidInput
	}
	return nil
}
