package cache

import (
	"context"
	"time"

	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

var _ pricing.QuoteCache = NoopQuoteCache{}

// NoopQuoteCache se usa cuando REDIS_ADDR no está configurado: nunca encuentra nada.
type NoopQuoteCache struct{}

func (NoopQuoteCache) Get(_ context.Context, _ string) (*entity.PricedLine, bool, error) {
	return nil, false, nil
}

func (NoopQuoteCache) Set(_ context.Context, _ string, _ *entity.PricedLine, _ time.Duration) error {
	return nil
}
