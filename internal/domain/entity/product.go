package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto coleccionable configurable.
// TotalStock es el agregado cacheado; solo el libro de stock lo modifica.
type Product struct {
	ID              string
	Name            string
	Description     string
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TotalStock      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductHierarchy es la vista de solo lectura que necesita el resolvedor: el producto,
// sus asociaciones por nivel y los nodos asociados más sus ancestros.
type ProductHierarchy struct {
	Product      *Product
	associations map[Level]map[string]Association
	nodes        map[Level]map[string]*HierarchyNode
}

// NewProductHierarchy construye la vista vacía para un producto.
func NewProductHierarchy(p *Product) *ProductHierarchy {
	return &ProductHierarchy{
		Product:      p,
		associations: make(map[Level]map[string]Association, len(Levels)),
		nodes:        make(map[Level]map[string]*HierarchyNode, len(Levels)),
	}
}

// AddAssociation registra la asociación y su nodo.
func (h *ProductHierarchy) AddAssociation(a Association, node *HierarchyNode) {
	if h.associations[a.Level] == nil {
		h.associations[a.Level] = make(map[string]Association)
	}
	h.associations[a.Level][a.NodeID] = a
	h.AddNode(node)
}

// AddNode registra un nodo (asociado o ancestro).
func (h *ProductHierarchy) AddNode(n *HierarchyNode) {
	if n == nil {
		return
	}
	if h.nodes[n.Level] == nil {
		h.nodes[n.Level] = make(map[string]*HierarchyNode)
	}
	h.nodes[n.Level][n.ID] = n
}

// Association devuelve la asociación del producto con el nodo, si existe.
func (h *ProductHierarchy) Association(level Level, nodeID string) (Association, bool) {
	a, ok := h.associations[level][nodeID]
	return a, ok
}

// Node devuelve un nodo conocido por nivel e id, o nil.
func (h *ProductHierarchy) Node(level Level, id string) *HierarchyNode {
	return h.nodes[level][id]
}

// MissingParents lista, por nivel, los ids de padres declarados que todavía no están cargados.
// El cargador la usa para completar ancestros antes de resolver.
func (h *ProductHierarchy) MissingParents() map[Level][]string {
	out := make(map[Level][]string)
	for i := len(Levels) - 1; i > 0; i-- {
		parentLevel := Levels[i-1]
		for _, n := range h.nodes[Levels[i]] {
			if n.HasParent() && h.Node(parentLevel, n.ParentID) == nil {
				out[parentLevel] = appendUnique(out[parentLevel], n.ParentID)
			}
		}
	}
	return out
}

func appendUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

// ProductEvent evento promocional con descuento sobre el producto durante [StartsAt, EndsAt).
type ProductEvent struct {
	ID              string
	ProductID       string
	Name            string
	DiscountPercent decimal.Decimal
	StartsAt        time.Time
	EndsAt          time.Time
}

// ActiveAt indica si el evento está vigente en t.
func (e ProductEvent) ActiveAt(t time.Time) bool {
	return !t.Before(e.StartsAt) && t.Before(e.EndsAt)
}
