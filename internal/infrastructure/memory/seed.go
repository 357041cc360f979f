package memory

import (
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Carga de datos: la administración del catálogo está fuera de este núcleo, así que el almacén
// en memoria se llena con estas funciones (tests y modo demo).

// PutProduct registra el producto y su total cacheado.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.st.products[p.ID] = &cp
	s.st.totals[entity.StockRef{Kind: entity.StockableProduct, ID: p.ID}] = p.TotalStock
}

// PutNode registra un nodo. SubCategory, Division y Variant además son entidades con stock.
func (s *Store) PutNode(n entity.HierarchyNode, totalStock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.nodes[n.Level] == nil {
		s.st.nodes[n.Level] = make(map[string]*entity.HierarchyNode)
	}
	cp := n
	s.st.nodes[n.Level][n.ID] = &cp
	if kind, ok := stockableKindFor(n.Level); ok {
		s.st.totals[entity.StockRef{Kind: kind, ID: n.ID}] = totalStock
	}
}

// PutAssociation registra la asociación tras validarla.
func (s *Store) PutAssociation(a entity.Association) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[a.ProductID]; !ok {
		return domain.ErrNotFound
	}
	list := s.st.associations[a.ProductID]
	for i, cur := range list {
		if cur.Level == a.Level && cur.NodeID == a.NodeID {
			list[i] = a
			return nil
		}
	}
	list = append(list, a)
	sortedLevels(list)
	s.st.associations[a.ProductID] = list
	return nil
}

// PutEvent registra un evento promocional.
func (s *Store) PutEvent(ev entity.ProductEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.events[ev.ProductID] = append(s.st.events[ev.ProductID], ev)
}

// PutStockable registra una entidad con stock que no es nodo ni producto (ProductGroup).
func (s *Store) PutStockable(ref entity.StockRef, totalStock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.totals[ref] = totalStock
}

func stockableKindFor(l entity.Level) (entity.StockableKind, bool) {
	switch l {
	case entity.LevelSubCategory:
		return entity.StockableSubCategory, true
	case entity.LevelDivision:
		return entity.StockableDivision, true
	case entity.LevelVariant:
		return entity.StockableVariant, true
	}
	return "", false
}

// NewSeeded crea un almacén con un catálogo de demostración:
// figura de colección con escala (subcategoría), acabado (división) y edición (variante).
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	dec := decimal.RequireFromString

	s.PutProduct(entity.Product{
		ID: "prod-figura-dragon", Name: "Figura Dragón de Jade", BasePrice: dec("100000"),
		DiscountPercent: dec("10"), CreatedAt: now, UpdatedAt: now,
	})
	s.PutProduct(entity.Product{
		ID: "prod-carta-fenix", Name: "Carta Fénix Holográfica", BasePrice: dec("45000"),
		CreatedAt: now, UpdatedAt: now,
	})
	s.PutStockable(entity.StockRef{Kind: entity.StockableProductGroup, ID: "grupo-temporada-1"}, 0)

	nodes := []entity.HierarchyNode{
		{ID: "cat-figuras", Level: entity.LevelCategory, Name: "Figuras"},
		{ID: "cat-cartas", Level: entity.LevelCategory, Name: "Cartas"},
		{ID: "sub-escala-1-6", Level: entity.LevelSubCategory, Name: "Escala 1/6", BasePrice: dec("20000"), DiscountPercent: dec("5"), ParentID: "cat-figuras"},
		{ID: "sub-escala-1-12", Level: entity.LevelSubCategory, Name: "Escala 1/12", BasePrice: dec("8000"), ParentID: "cat-figuras"},
		{ID: "sub-edicion-base", Level: entity.LevelSubCategory, Name: "Edición base", ParentID: "cat-cartas"},
		{ID: "div-pintado-mano", Level: entity.LevelDivision, Name: "Pintado a mano", BasePrice: dec("5000"), ParentID: "sub-escala-1-6"},
		{ID: "div-acabado-mate", Level: entity.LevelDivision, Name: "Acabado mate", BasePrice: dec("1500"), ParentID: "sub-escala-1-12"},
		{ID: "var-numerada", Level: entity.LevelVariant, Name: "Numerada", ParentID: "div-pintado-mano"},
		{ID: "var-firmada", Level: entity.LevelVariant, Name: "Firmada", BasePrice: dec("12000"), DiscountPercent: dec("15"), ParentID: "div-pintado-mano"},
	}
	for _, n := range nodes {
		n.CreatedAt, n.UpdatedAt = now, now
		s.PutNode(n, 0)
	}

	cap := int64(25)
	assocs := []entity.Association{
		{ProductID: "prod-figura-dragon", Level: entity.LevelCategory, NodeID: "cat-figuras", UseNodeDiscount: true},
		{ProductID: "prod-figura-dragon", Level: entity.LevelSubCategory, NodeID: "sub-escala-1-6", UseNodeDiscount: true},
		{ProductID: "prod-figura-dragon", Level: entity.LevelSubCategory, NodeID: "sub-escala-1-12", UseNodeDiscount: true},
		{ProductID: "prod-figura-dragon", Level: entity.LevelDivision, NodeID: "div-pintado-mano", ManualDiscountPercent: dec("10"), StockCap: &cap},
		{ProductID: "prod-figura-dragon", Level: entity.LevelDivision, NodeID: "div-acabado-mate", UseNodeDiscount: true},
		{ProductID: "prod-figura-dragon", Level: entity.LevelVariant, NodeID: "var-numerada", UseNodeDiscount: true},
		{ProductID: "prod-figura-dragon", Level: entity.LevelVariant, NodeID: "var-firmada", UseNodeDiscount: true},
		{ProductID: "prod-carta-fenix", Level: entity.LevelCategory, NodeID: "cat-cartas", UseNodeDiscount: true},
		{ProductID: "prod-carta-fenix", Level: entity.LevelSubCategory, NodeID: "sub-edicion-base", UseNodeDiscount: true},
	}
	for _, a := range assocs {
		_ = s.PutAssociation(a)
	}
	s.PutEvent(entity.ProductEvent{
		ID: "evt-aniversario", ProductID: "prod-carta-fenix", Name: "Aniversario",
		DiscountPercent: dec("20"), StartsAt: now.Add(-24 * time.Hour), EndsAt: now.Add(30 * 24 * time.Hour),
	})
	return s
}
