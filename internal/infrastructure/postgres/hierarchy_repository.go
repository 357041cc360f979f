package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
)

var _ repository.HierarchyRepository = (*HierarchyRepo)(nil)

// HierarchyRepo lee nodos y asociaciones de los cuatro niveles.
type HierarchyRepo struct {
	q Querier
}

// NewHierarchyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewHierarchyRepository(q Querier) *HierarchyRepo {
	return &HierarchyRepo{q: q}
}

// ListAssociations asociaciones del producto con su nodo, nivel por nivel.
func (r *HierarchyRepo) ListAssociations(ctx context.Context, productID string) ([]repository.AssociationWithNode, error) {
	var out []repository.AssociationWithNode
	for _, level := range entity.Levels {
		t, err := tablesForLevel(level)
		if err != nil {
			return nil, err
		}
		query := fmt.Sprintf(`
			SELECT a.use_node_discount, a.manual_discount_percent, a.stock_cap,
			       n.id, n.name, n.description, n.base_price, n.discount_percent, %s, n.created_at, n.updated_at
			FROM %s a
			JOIN %s n ON n.id = a.%s
			WHERE a.product_id = $1
			ORDER BY a.created_at, n.id`, t.parentExpr("n"), t.assocTable, t.nodes, t.assocNodeFK)

		rows, err := r.q.Query(ctx, query, productID)
		if err != nil {
			return nil, fmt.Errorf("list %s associations: %w", level, err)
		}
		for rows.Next() {
			item := repository.AssociationWithNode{
				Association: entity.Association{ProductID: productID, Level: level},
				Node:        &entity.HierarchyNode{Level: level},
			}
			n := item.Node
			if err := rows.Scan(
				&item.Association.UseNodeDiscount, &item.Association.ManualDiscountPercent, &item.Association.StockCap,
				&n.ID, &n.Name, &n.Description, &n.BasePrice, &n.DiscountPercent, &n.ParentID, &n.CreatedAt, &n.UpdatedAt,
			); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s association: %w", level, err)
			}
			item.Association.NodeID = n.ID
			out = append(out, item)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list %s associations: %w", level, err)
		}
	}
	return out, nil
}

// GetNodes nodos del nivel con esos ids; los que no existen simplemente no vuelven.
func (r *HierarchyRepo) GetNodes(ctx context.Context, level entity.Level, ids []string) ([]*entity.HierarchyNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	t, err := tablesForLevel(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT n.id, n.name, n.description, n.base_price, n.discount_percent, %s, n.created_at, n.updated_at
		FROM %s n WHERE n.id = ANY($1)
		ORDER BY n.id`, t.parentExpr("n"), t.nodes)

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get %s nodes: %w", level, err)
	}
	nodes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.HierarchyNode, error) {
		n := &entity.HierarchyNode{Level: level}
		err := row.Scan(&n.ID, &n.Name, &n.Description, &n.BasePrice, &n.DiscountPercent, &n.ParentID, &n.CreatedAt, &n.UpdatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s nodes: %w", level, err)
	}
	return nodes, nil
}
