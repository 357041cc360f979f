package repository

import (
	"context"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

// AssociationWithNode asociación junto con el nodo al que apunta (JOIN de la tabla pivote).
type AssociationWithNode struct {
	Association entity.Association
	Node        *entity.HierarchyNode
}

// HierarchyRepository define el puerto de solo lectura del almacén de jerarquía.
// Este núcleo nunca crea ni modifica nodos o asociaciones.
type HierarchyRepository interface {
	// ListAssociations devuelve todas las asociaciones del producto en los cuatro niveles.
	ListAssociations(ctx context.Context, productID string) ([]AssociationWithNode, error)
	// GetNodes devuelve los nodos existentes del nivel con los ids dados (los ausentes se omiten).
	GetNodes(ctx context.Context, level entity.Level, ids []string) ([]*entity.HierarchyNode, error)
}
