package entity

import "github.com/shopspring/decimal"

// LineState estado (no persistido) de una línea durante la resolución y el cálculo de precio.
type LineState string

const (
	StateUnresolved          LineState = "UNRESOLVED"
	StateCategoryResolved    LineState = "CATEGORY_RESOLVED"
	StateSubCategoryResolved LineState = "SUB_CATEGORY_RESOLVED"
	StateDivisionResolved    LineState = "DIVISION_RESOLVED"
	StateVariantResolved     LineState = "VARIANT_RESOLVED"
	StatePriced              LineState = "PRICED"
	StateRejected            LineState = "REJECTED"
)

// resolvedStates estado alcanzado tras procesar cada nivel (mismo índice que Levels).
var resolvedStates = [...]LineState{
	StateCategoryResolved, StateSubCategoryResolved, StateDivisionResolved, StateVariantResolved,
}

// ResolvedStateFor devuelve el estado alcanzado al terminar el nivel dado.
func ResolvedStateFor(l Level) LineState {
	if i := l.Index(); i >= 0 {
		return resolvedStates[i]
	}
	return StateUnresolved
}

// Selection ids de nivel elegidos para una línea; cualquiera puede venir vacío.
type Selection struct {
	CategoryID    string `json:"category_id,omitempty"`
	SubCategoryID string `json:"sub_category_id,omitempty"`
	DivisionID    string `json:"division_id,omitempty"`
	VariantID     string `json:"variant_id,omitempty"`
}

// ID devuelve el id seleccionado para el nivel.
func (s Selection) ID(l Level) string {
	switch l {
	case LevelCategory:
		return s.CategoryID
	case LevelSubCategory:
		return s.SubCategoryID
	case LevelDivision:
		return s.DivisionID
	case LevelVariant:
		return s.VariantID
	}
	return ""
}

// ResolvedLevel nodo resuelto en un nivel, con lo necesario para el snapshot de la línea.
type ResolvedLevel struct {
	Level               Level
	NodeID              string
	Name                string
	BasePrice           decimal.Decimal
	NodeDiscountPercent decimal.Decimal
	Inferred            bool         // deducido desde el padre de un nivel inferior
	Association         *Association // nil si el producto no está asociado al nodo
	DiscountPercent     decimal.Decimal
	Portion             decimal.Decimal // aporte del nivel al precio unitario
}

// ResolvedSelection tupla validada (category?, subCategory?, division?, variant?).
type ResolvedSelection struct {
	ProductID   string
	Category    *ResolvedLevel
	SubCategory *ResolvedLevel
	Division    *ResolvedLevel
	Variant     *ResolvedLevel
	State       LineState
}

// Get devuelve el nivel resuelto o nil.
func (r *ResolvedSelection) Get(l Level) *ResolvedLevel {
	switch l {
	case LevelCategory:
		return r.Category
	case LevelSubCategory:
		return r.SubCategory
	case LevelDivision:
		return r.Division
	case LevelVariant:
		return r.Variant
	}
	return nil
}

// Set asigna el nivel resuelto.
func (r *ResolvedSelection) Set(l Level, rl *ResolvedLevel) {
	switch l {
	case LevelCategory:
		r.Category = rl
	case LevelSubCategory:
		r.SubCategory = rl
	case LevelDivision:
		r.Division = rl
	case LevelVariant:
		r.Variant = rl
	}
}

// PricedLine línea con precio calculado, lista para que el llamador la guarde como snapshot.
type PricedLine struct {
	Line                   int
	ProductID              string
	ProductName            string
	ProductDiscountPercent decimal.Decimal // max(propio, evento) aplicado al producto
	ProductPortion         decimal.Decimal
	Selection              ResolvedSelection
	Quantity               int64
	UnitPrice              decimal.Decimal
	LineTotal              decimal.Decimal
	State                  LineState
}
