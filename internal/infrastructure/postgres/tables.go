package postgres

import (
	"fmt"

	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// Los nombres de tabla y columna salen siempre de estas listas cerradas, nunca de la entrada.

type levelTables struct {
	nodes       string // tabla del nivel
	parentCol   string // columna del padre; vacío en category
	assocTable  string // pivote product_<nivel>
	assocNodeFK string
}

var levelTableMap = map[entity.Level]levelTables{
	entity.LevelCategory:    {nodes: "categories", assocTable: "product_categories", assocNodeFK: "category_id"},
	entity.LevelSubCategory: {nodes: "sub_categories", parentCol: "category_id", assocTable: "product_sub_categories", assocNodeFK: "sub_category_id"},
	entity.LevelDivision:    {nodes: "divisions", parentCol: "sub_category_id", assocTable: "product_divisions", assocNodeFK: "division_id"},
	entity.LevelVariant:     {nodes: "variants", parentCol: "division_id", assocTable: "product_variants", assocNodeFK: "variant_id"},
}

func tablesForLevel(l entity.Level) (levelTables, error) {
	t, ok := levelTableMap[l]
	if !ok {
		return levelTables{}, fmt.Errorf("nivel %q: %w", l, domain.ErrInvalidInput)
	}
	return t, nil
}

// parentExpr columna del padre como texto; '' para category.
func (t levelTables) parentExpr(alias string) string {
	if t.parentCol == "" {
		return "''"
	}
	return fmt.Sprintf("COALESCE(%s.%s, '')", alias, t.parentCol)
}

type stockTables struct {
	aggregate string // tabla con total_stock
	movements string // libro <tipo>_stock_movements
	ownerFK   string // columna del libro que apunta a la entidad
}

var stockTableMap = map[entity.StockableKind]stockTables{
	entity.StockableProduct:      {aggregate: "products", movements: "product_stock_movements", ownerFK: "product_id"},
	entity.StockableSubCategory:  {aggregate: "sub_categories", movements: "sub_category_stock_movements", ownerFK: "sub_category_id"},
	entity.StockableDivision:     {aggregate: "divisions", movements: "division_stock_movements", ownerFK: "division_id"},
	entity.StockableVariant:      {aggregate: "variants", movements: "variant_stock_movements", ownerFK: "variant_id"},
	entity.StockableProductGroup: {aggregate: "product_groups", movements: "product_group_stock_movements", ownerFK: "product_group_id"},
}

func tablesForKind(k entity.StockableKind) (stockTables, error) {
	t, ok := stockTableMap[k]
	if !ok {
		return stockTables{}, fmt.Errorf("tipo %q: %w", k, domain.ErrInvalidInput)
	}
	return t, nil
}
