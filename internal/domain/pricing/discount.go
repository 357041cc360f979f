package pricing

import (
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy decide los dos puntos abiertos de la composición de precio.
type Policy struct {
	// ComposeLevelDiscountsAlways aplica los descuentos de subcategoría/división/variante aunque
	// el producto no tenga descuento propio. En false se reproduce la regla histórica:
	// sin descuento de producto, los niveles se suman a precio base.
	ComposeLevelDiscountsAlways bool
	// ClampPercentages recorta cada porcentaje a [0,100] antes de usarlo.
	ClampPercentages bool
}

// DefaultPolicy regla histórica de composición con porcentajes recortados.
func DefaultPolicy() Policy {
	return Policy{ClampPercentages: true}
}

// AppliedAmount precio de un componente tras su descuento, redondeado a 2 decimales.
// base <= 0 o pct <= 0 devuelven la base redondeada.
func AppliedAmount(base, pct decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() || !pct.IsPositive() {
		return base.Round(2)
	}
	return base.Sub(base.Mul(pct).Div(hundred)).Round(2)
}

// LineTotal total de la línea: round(unitario * cantidad, 2).
func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(2)
}

func (p Policy) percent(v decimal.Decimal) decimal.Decimal {
	if !p.ClampPercentages {
		return v
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}

// LevelDiscount porcentaje de un nivel según su asociación; 0 si el nivel no está o no tiene asociación.
func (p Policy) LevelDiscount(rl *entity.ResolvedLevel) decimal.Decimal {
	if rl == nil || rl.Association == nil {
		return decimal.Zero
	}
	if rl.Association.UseNodeDiscount {
		return p.percent(rl.NodeDiscountPercent)
	}
	return p.percent(rl.Association.ManualDiscountPercent)
}

// discountedLevels niveles que aportan precio (la categoría solo clasifica).
var discountedLevels = [...]entity.Level{entity.LevelSubCategory, entity.LevelDivision, entity.LevelVariant}

// Engine calcula precios de línea. Sin estado más allá de la política; seguro para uso concurrente.
type Engine struct {
	policy Policy
}

// NewEngine construye el motor con la política dada.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy devuelve la política activa.
func (e *Engine) Policy() Policy { return e.policy }

// PriceLine compone el precio unitario de una selección resuelta y el total para la cantidad.
// No modifica resolved: la línea devuelta lleva su propia copia de los niveles.
func (e *Engine) PriceLine(product *entity.Product, resolved *entity.ResolvedSelection, eventDiscount decimal.Decimal, quantity int64) entity.PricedLine {
	sel := copySelection(resolved)
	own := e.policy.percent(product.DiscountPercent)
	applyDiscounts := own.IsPositive() || e.policy.ComposeLevelDiscountsAlways

	line := entity.PricedLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Selection:   sel,
		Quantity:    quantity,
	}

	var unit decimal.Decimal
	if applyDiscounts {
		productPct := decimal.Max(own, e.policy.percent(eventDiscount))
		line.ProductDiscountPercent = productPct
		line.ProductPortion = AppliedAmount(product.BasePrice, productPct)
		unit = line.ProductPortion
		for _, level := range discountedLevels {
			rl := sel.Get(level)
			if rl == nil {
				continue
			}
			rl.DiscountPercent = e.policy.LevelDiscount(rl)
			rl.Portion = AppliedAmount(rl.BasePrice, rl.DiscountPercent)
			unit = unit.Add(rl.Portion)
		}
	} else {
		line.ProductDiscountPercent = decimal.Zero
		line.ProductPortion = product.BasePrice
		unit = product.BasePrice
		for _, level := range discountedLevels {
			rl := sel.Get(level)
			if rl == nil {
				continue
			}
			rl.DiscountPercent = decimal.Zero
			rl.Portion = rl.BasePrice
			unit = unit.Add(rl.BasePrice)
		}
		unit = unit.Round(2)
	}

	if unit.IsNegative() {
		unit = decimal.Zero
	}
	line.UnitPrice = unit
	line.LineTotal = LineTotal(unit, quantity)
	line.State = entity.StatePriced
	line.Selection.State = entity.StatePriced
	return line
}

func copySelection(r *entity.ResolvedSelection) entity.ResolvedSelection {
	if r == nil {
		return entity.ResolvedSelection{State: entity.StateUnresolved}
	}
	out := entity.ResolvedSelection{ProductID: r.ProductID, State: r.State}
	for _, level := range entity.Levels {
		if rl := r.Get(level); rl != nil {
			c := *rl
			out.Set(level, &c)
		}
	}
	return out
}
