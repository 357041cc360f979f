package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Escenario A/B: producto 100000; subcategoría 20000 (descuento del nodo 5%);
// división 5000 (descuento manual 10%); variante 0.
// ──────────────────────────────────────────────────────────────────────────────

func scenario(productDiscount string) (*entity.Product, *entity.ResolvedSelection) {
	product := &entity.Product{ID: "prod-1", Name: "Figura", BasePrice: d("100000"), DiscountPercent: d(productDiscount)}
	sel := &entity.ResolvedSelection{ProductID: "prod-1", State: entity.StateVariantResolved}
	sel.Set(entity.LevelSubCategory, &entity.ResolvedLevel{
		Level: entity.LevelSubCategory, NodeID: "sub-1", BasePrice: d("20000"), NodeDiscountPercent: d("5"),
		Association: &entity.Association{UseNodeDiscount: true, ManualDiscountPercent: d("50")},
	})
	sel.Set(entity.LevelDivision, &entity.ResolvedLevel{
		Level: entity.LevelDivision, NodeID: "div-1", BasePrice: d("5000"), NodeDiscountPercent: d("80"),
		Association: &entity.Association{UseNodeDiscount: false, ManualDiscountPercent: d("10")},
	})
	sel.Set(entity.LevelVariant, &entity.ResolvedLevel{
		Level: entity.LevelVariant, NodeID: "var-1", BasePrice: decimal.Zero,
		Association: &entity.Association{UseNodeDiscount: true},
	})
	return product, sel
}

func TestPriceLine_EscenarioA(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	product, sel := scenario("10")

	line := engine.PriceLine(product, sel, decimal.Zero, 2)

	assert.True(t, d("90000").Equal(line.ProductPortion), "porción producto: %s", line.ProductPortion)
	assert.True(t, d("19000").Equal(line.Selection.SubCategory.Portion))
	assert.True(t, d("4500").Equal(line.Selection.Division.Portion))
	assert.True(t, decimal.Zero.Equal(line.Selection.Variant.Portion))
	assert.True(t, d("113500").Equal(line.UnitPrice), "unitario: %s", line.UnitPrice)
	assert.True(t, d("227000").Equal(line.LineTotal), "total: %s", line.LineTotal)
	assert.Equal(t, entity.StatePriced, line.State)
}

// Regla histórica: sin descuento de producto, los descuentos de nivel se ignoran.
func TestPriceLine_EscenarioB_SinDescuentoProducto(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	product, sel := scenario("0")

	line := engine.PriceLine(product, sel, decimal.Zero, 1)

	assert.True(t, d("125000").Equal(line.UnitPrice), "unitario: %s", line.UnitPrice)
	assert.True(t, decimal.Zero.Equal(line.Selection.Division.DiscountPercent))
}

func TestPriceLine_ComposicionIndependiente(t *testing.T) {
	engine := pricing.NewEngine(pricing.Policy{ComposeLevelDiscountsAlways: true, ClampPercentages: true})
	product, sel := scenario("0")

	line := engine.PriceLine(product, sel, decimal.Zero, 1)

	// 100000 + 19000 + 4500 + 0
	assert.True(t, d("123500").Equal(line.UnitPrice), "unitario: %s", line.UnitPrice)
}

func TestPriceLine_SinDescuentosEsSumaDeBases(t *testing.T) {
	engine := pricing.NewEngine(pricing.Policy{ComposeLevelDiscountsAlways: true})
	product := &entity.Product{ID: "p", BasePrice: d("1234.56")}
	sel := &entity.ResolvedSelection{}
	sel.Set(entity.LevelSubCategory, &entity.ResolvedLevel{BasePrice: d("10.10"), Association: &entity.Association{}})
	sel.Set(entity.LevelDivision, &entity.ResolvedLevel{BasePrice: d("0.01"), Association: &entity.Association{UseNodeDiscount: true}})
	sel.Set(entity.LevelVariant, &entity.ResolvedLevel{BasePrice: d("5")})

	line := engine.PriceLine(product, sel, decimal.Zero, 3)

	assert.True(t, d("1249.67").Equal(line.UnitPrice), "unitario: %s", line.UnitPrice)
	assert.True(t, d("3749.01").Equal(line.LineTotal))
}

func TestPriceLine_EventoMayorQueDescuentoPropio(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	product := &entity.Product{ID: "p", BasePrice: d("200"), DiscountPercent: d("5")}

	line := engine.PriceLine(product, &entity.ResolvedSelection{}, d("25"), 1)

	assert.True(t, d("25").Equal(line.ProductDiscountPercent))
	assert.True(t, d("150").Equal(line.UnitPrice))
}

// El evento no activa la composición con descuentos si el producto no tiene descuento propio.
func TestPriceLine_EventoSinDescuentoPropioSeIgnoraEnRamaHistorica(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	product := &entity.Product{ID: "p", BasePrice: d("200")}

	line := engine.PriceLine(product, &entity.ResolvedSelection{}, d("25"), 1)

	assert.True(t, d("200").Equal(line.UnitPrice))
}

func TestPriceLine_PorcentajesRecortados(t *testing.T) {
	product := &entity.Product{ID: "p", BasePrice: d("100"), DiscountPercent: d("10")}
	sel := &entity.ResolvedSelection{}
	sel.Set(entity.LevelDivision, &entity.ResolvedLevel{
		BasePrice: d("50"), Association: &entity.Association{ManualDiscountPercent: d("150")},
	})

	clamped := pricing.NewEngine(pricing.DefaultPolicy()).PriceLine(product, sel, decimal.Zero, 1)
	assert.True(t, decimal.Zero.Equal(clamped.Selection.Division.Portion))
	assert.True(t, d("90").Equal(clamped.UnitPrice))

	// Sin recorte, la porción negativa se resta antes del max(0, …) final.
	raw := pricing.NewEngine(pricing.Policy{}).PriceLine(product, sel, decimal.Zero, 1)
	assert.True(t, d("-25").Equal(raw.Selection.Division.Portion))
	assert.True(t, d("65").Equal(raw.UnitPrice))
}

func TestPriceLine_UnitarioNuncaNegativo(t *testing.T) {
	product := &entity.Product{ID: "p", BasePrice: d("10"), DiscountPercent: d("10")}
	sel := &entity.ResolvedSelection{}
	sel.Set(entity.LevelVariant, &entity.ResolvedLevel{
		BasePrice: d("100"), Association: &entity.Association{ManualDiscountPercent: d("300")},
	})

	line := pricing.NewEngine(pricing.Policy{}).PriceLine(product, sel, decimal.Zero, 4)

	assert.True(t, decimal.Zero.Equal(line.UnitPrice))
	assert.True(t, decimal.Zero.Equal(line.LineTotal))
}

func TestPriceLine_NoModificaSeleccionDeEntrada(t *testing.T) {
	product, sel := scenario("10")
	_ = pricing.NewEngine(pricing.DefaultPolicy()).PriceLine(product, sel, decimal.Zero, 1)
	assert.True(t, sel.SubCategory.Portion.IsZero(), "la selección de entrada no debe recibir porciones")
}

func TestPriceLine_Determinista(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	product, sel := scenario("10")
	a := engine.PriceLine(product, sel, decimal.Zero, 2)
	b := engine.PriceLine(product, sel, decimal.Zero, 2)
	require.Equal(t, a, b)
}

func TestAppliedAmount(t *testing.T) {
	cases := []struct {
		base, pct, want string
	}{
		{"100", "0", "100"},
		{"-5", "10", "-5"},
		{"0", "50", "0"},
		{"99.999", "0", "100"},
		{"33.33", "33", "22.33"},
	}
	for _, c := range cases {
		got := pricing.AppliedAmount(d(c.base), d(c.pct))
		assert.True(t, d(c.want).Equal(got), "AppliedAmount(%s,%s)=%s, se esperaba %s", c.base, c.pct, got, c.want)
	}
}

func TestLevelDiscount(t *testing.T) {
	p := pricing.DefaultPolicy()
	assert.True(t, p.LevelDiscount(nil).IsZero())
	assert.True(t, p.LevelDiscount(&entity.ResolvedLevel{NodeDiscountPercent: d("7")}).IsZero(), "sin asociación no hay descuento")
	assert.True(t, d("7").Equal(p.LevelDiscount(&entity.ResolvedLevel{
		NodeDiscountPercent: d("7"), Association: &entity.Association{UseNodeDiscount: true, ManualDiscountPercent: d("1")},
	})))
	assert.True(t, d("1").Equal(p.LevelDiscount(&entity.ResolvedLevel{
		NodeDiscountPercent: d("7"), Association: &entity.Association{ManualDiscountPercent: d("1")},
	})))
}
