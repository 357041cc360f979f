package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.HierarchyRepository     = (*HierarchyRepo)(nil)
	_ repository.StockRepository         = (*StockRepo)(nil)
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
)

// ProductRepo lectura de productos en memoria.
type ProductRepo struct {
	s  *Store
	tx *state
}

// GetByID devuelve una copia del producto con el total cacheado actual.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := read(r.s, r.tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return nil
		}
		cp := *p
		cp.TotalStock = st.totals[entity.StockRef{Kind: entity.StockableProduct, ID: id}]
		out = &cp
		return nil
	})
	return out, err
}

// ActiveEventDiscount mayor descuento entre los eventos vigentes.
func (r *ProductRepo) ActiveEventDiscount(_ context.Context, productID string, at time.Time) (decimal.Decimal, bool, error) {
	best, found := decimal.Zero, false
	err := read(r.s, r.tx, func(st *state) error {
		for _, ev := range st.events[productID] {
			if ev.ActiveAt(at) && (!found || ev.DiscountPercent.GreaterThan(best)) {
				best, found = ev.DiscountPercent, true
			}
		}
		return nil
	})
	return best, found, err
}

// HierarchyRepo lectura de nodos y asociaciones en memoria.
type HierarchyRepo struct {
	s  *Store
	tx *state
}

// ListAssociations asociaciones del producto con sus nodos, en orden de nivel y de alta.
func (r *HierarchyRepo) ListAssociations(_ context.Context, productID string) ([]repository.AssociationWithNode, error) {
	var out []repository.AssociationWithNode
	err := read(r.s, r.tx, func(st *state) error {
		for _, a := range st.associations[productID] {
			n, ok := st.nodes[a.Level][a.NodeID]
			if !ok {
				continue
			}
			cp := *n
			out = append(out, repository.AssociationWithNode{Association: a, Node: &cp})
		}
		return nil
	})
	return out, err
}

// GetNodes nodos existentes del nivel.
func (r *HierarchyRepo) GetNodes(_ context.Context, level entity.Level, ids []string) ([]*entity.HierarchyNode, error) {
	var out []*entity.HierarchyNode
	err := read(r.s, r.tx, func(st *state) error {
		for _, id := range ids {
			if n, ok := st.nodes[level][id]; ok {
				cp := *n
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

// StockRepo totales cacheados en memoria.
type StockRepo struct {
	s  *Store
	tx *txn
}

// GetTotal total cacheado o ErrNotFound si la entidad no está registrada.
func (r *StockRepo) GetTotal(_ context.Context, ref entity.StockRef) (int64, error) {
	var total int64
	err := read(r.s, r.tx.state(), func(st *state) error {
		v, ok := st.totals[ref]
		if !ok {
			return domain.ErrNotFound
		}
		total = v
		return nil
	})
	return total, err
}

// GetTotalForUpdate en memoria equivale a GetTotal: la transacción ya tiene el candado exclusivo.
func (r *StockRepo) GetTotalForUpdate(ctx context.Context, ref entity.StockRef) (int64, error) {
	return r.GetTotal(ctx, ref)
}

// AddToTotal suma delta al total de una entidad existente.
func (r *StockRepo) AddToTotal(_ context.Context, ref entity.StockRef, delta int64) (int64, error) {
	var total int64
	err := write(r.s, r.tx.state(), func(st *state) error {
		v, ok := st.totals[ref]
		if !ok {
			return domain.ErrNotFound
		}
		total = v + delta
		st.totals[ref] = total
		r.tx.onRollback(func() { st.totals[ref] = v })
		return nil
	})
	return total, err
}

// StockMovementRepo libro de stock en memoria.
type StockMovementRepo struct {
	s  *Store
	tx *txn
}

// Create agrega el movimiento al libro de su tipo.
func (r *StockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return write(r.s, r.tx.state(), func(st *state) error {
		if st.movements[m.Kind] == nil {
			st.movements[m.Kind] = make(map[string]*entity.StockMovement)
		}
		if _, dup := st.movements[m.Kind][m.ID]; dup {
			return domain.ErrInvalidInput
		}
		cp := *m
		st.movements[m.Kind][m.ID] = &cp
		ref := m.Ref()
		prevLen := len(st.order[ref])
		st.order[ref] = append(st.order[ref], m.ID)
		r.tx.onRollback(func() {
			delete(st.movements[m.Kind], cp.ID)
			st.order[ref] = st.order[ref][:prevLen]
		})
		return nil
	})
}

// GetByID devuelve nil, nil si no existe.
func (r *StockMovementRepo) GetByID(_ context.Context, kind entity.StockableKind, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := read(r.s, r.tx.state(), func(st *state) error {
		if m, ok := st.movements[kind][id]; ok {
			cp := *m
			out = &cp
		}
		return nil
	})
	return out, err
}

// UpdateCorrection reemplaza cantidad, observaciones y datos de corrección.
func (r *StockMovementRepo) UpdateCorrection(_ context.Context, m *entity.StockMovement) error {
	return write(r.s, r.tx.state(), func(st *state) error {
		cur, ok := st.movements[m.Kind][m.ID]
		if !ok {
			return domain.ErrNotFound
		}
		prev := *cur
		r.tx.onRollback(func() { *cur = prev })
		cur.Quantity = m.Quantity
		cur.Remarks = m.Remarks
		cur.CorrectedAt = m.CorrectedAt
		cur.CorrectedBy = m.CorrectedBy
		return nil
	})
}

// Latest último movimiento agregado o nil.
func (r *StockMovementRepo) Latest(_ context.Context, ref entity.StockRef) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := read(r.s, r.tx.state(), func(st *state) error {
		ids := st.order[ref]
		if len(ids) == 0 {
			return nil
		}
		cp := *st.movements[ref.Kind][ids[len(ids)-1]]
		out = &cp
		return nil
	})
	return out, err
}

// ListByEntity movimientos del más reciente al más antiguo.
func (r *StockMovementRepo) ListByEntity(_ context.Context, ref entity.StockRef, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := read(r.s, r.tx.state(), func(st *state) error {
		ids := st.order[ref]
		for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
			cp := *st.movements[ref.Kind][ids[i]]
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

// Sum suma de cantidades y número de filas del libro de la entidad.
func (r *StockMovementRepo) Sum(_ context.Context, ref entity.StockRef) (int64, int64, error) {
	var total, rows int64
	err := read(r.s, r.tx.state(), func(st *state) error {
		for _, id := range st.order[ref] {
			total += st.movements[ref.Kind][id].Quantity
			rows++
		}
		return nil
	})
	return total, rows, err
}

// sortedLevels ordena asociaciones por nivel para que la vista sea determinista.
func sortedLevels(list []entity.Association) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Level.Index() < list[j].Level.Index() })
}
