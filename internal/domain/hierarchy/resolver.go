package hierarchy

import (
	"github.com/jhoicas/coleccionables-api/internal/domain"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// Resolve valida una selección parcial contra la jerarquía del producto (servicio de dominio puro).
//
// Por cada nivel, de Category a Variant:
//   - el id elegido debe pertenecer al conjunto de asociaciones del producto en ese nivel;
//   - si hay un ancestro ya resuelto, el padre guardado del nodo debe coincidir con él;
//   - si los niveles superiores no se eligieron, se deducen subiendo por ParentID.
//
// Devuelve *domain.LevelError con el nivel culpable; nunca entra en pánico ni aborta al llamador.
func Resolve(h *entity.ProductHierarchy, sel entity.Selection) (*entity.ResolvedSelection, error) {
	if h == nil || h.Product == nil {
		return nil, &domain.LevelError{Level: "product", Kind: domain.KindNotFound}
	}
	out := &entity.ResolvedSelection{ProductID: h.Product.ID, State: entity.StateUnresolved}

	for i, level := range entity.Levels {
		id := sel.ID(level)
		if id == "" {
			continue
		}
		if _, ok := h.Association(level, id); !ok {
			return nil, levelErr(level, id, domain.KindNotAssociated)
		}
		node := h.Node(level, id)
		if node == nil {
			return nil, levelErr(level, id, domain.KindNotFound)
		}
		out.Set(level, resolvedLevel(h, node, false))

		// Sube por los padres hasta encontrar un ancestro resuelto (que debe coincidir)
		// o hasta un nodo sin padre.
		child := node
		for j := i - 1; j >= 0; j-- {
			parentLevel := entity.Levels[j]
			if existing := out.Get(parentLevel); existing != nil {
				if child.ParentID != existing.NodeID {
					return nil, levelErr(level, id, domain.KindParentMismatch)
				}
				break
			}
			if !child.HasParent() {
				break
			}
			parent := h.Node(parentLevel, child.ParentID)
			if parent == nil {
				return nil, levelErr(parentLevel, child.ParentID, domain.KindNotFound)
			}
			out.Set(parentLevel, resolvedLevel(h, parent, true))
			child = parent
		}
	}

	for _, level := range entity.Levels {
		if out.Get(level) != nil {
			out.State = entity.ResolvedStateFor(level)
		}
	}
	return out, nil
}

func resolvedLevel(h *entity.ProductHierarchy, n *entity.HierarchyNode, inferred bool) *entity.ResolvedLevel {
	rl := &entity.ResolvedLevel{
		Level:               n.Level,
		NodeID:              n.ID,
		Name:                n.Name,
		BasePrice:           n.BasePrice,
		NodeDiscountPercent: n.DiscountPercent,
		Inferred:            inferred,
	}
	if a, ok := h.Association(n.Level, n.ID); ok {
		rl.Association = &a
	}
	return rl
}

func levelErr(level entity.Level, id string, kind domain.LevelErrorKind) *domain.LevelError {
	return &domain.LevelError{Level: string(level), NodeID: id, Kind: kind}
}
