package pricing

import (
	"context"
	"time"

	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
)

// TxRunner abre una transacción de solo lectura (repeatable read) y pasa repositorios atados a ella.
// Todas las líneas de un lote se valoran contra la misma foto del catálogo.
type TxRunner interface {
	RunPricing(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		hierarchyRepo repository.HierarchyRepository,
	) error) error
}

// QuoteCache guarda cotizaciones de una sola línea.
type QuoteCache interface {
	Get(ctx context.Context, key string) (*entity.PricedLine, bool, error)
	Set(ctx context.Context, key string, value *entity.PricedLine, ttl time.Duration) error
}
