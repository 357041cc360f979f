package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level es uno de los cuatro niveles opcionales bajo un producto.
type Level string

// Niveles de la jerarquía, de arriba hacia abajo.
const (
	LevelCategory    Level = "category"
	LevelSubCategory Level = "sub_category"
	LevelDivision    Level = "division"
	LevelVariant     Level = "variant"
)

// Levels lista los niveles en orden jerárquico (el índice es la profundidad).
var Levels = [...]Level{LevelCategory, LevelSubCategory, LevelDivision, LevelVariant}

// Index devuelve la profundidad del nivel o -1 si no es válido.
func (l Level) Index() int {
	for i, lv := range Levels {
		if lv == l {
			return i
		}
	}
	return -1
}

// Valid indica si el nivel es uno de los cuatro conocidos.
func (l Level) Valid() bool { return l.Index() >= 0 }

// HierarchyNode representa una Category, SubCategory, Division o Variant.
// ParentID vacío si el nodo no declara padre (las categorías nunca lo declaran).
type HierarchyNode struct {
	ID              string
	Level           Level
	Name            string
	Description     string
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal // descuento propio del nodo
	ParentID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasParent indica si el nodo declara un padre.
func (n *HierarchyNode) HasParent() bool { return n.ParentID != "" }
