package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
)

var _ pricing.QuoteCache = (*RedisQuoteCache)(nil)

// RedisQuoteCache guarda cotizaciones serializadas en JSON con TTL.
type RedisQuoteCache struct {
	client redis.UniversalClient
}

// NewRedisQuoteCache crea el cliente contra addr.
func NewRedisQuoteCache(addr, password string, db int) *RedisQuoteCache {
	return NewRedisQuoteCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisQuoteCacheWithClient reutiliza un cliente existente.
func NewRedisQuoteCacheWithClient(client redis.UniversalClient) *RedisQuoteCache {
	return &RedisQuoteCache{client: client}
}

// Ping verifica la conexión al arrancar.
func (c *RedisQuoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close cierra el cliente.
func (c *RedisQuoteCache) Close() error {
	return c.client.Close()
}

func (c *RedisQuoteCache) Get(ctx context.Context, key string) (*entity.PricedLine, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var line entity.PricedLine
	if err := json.Unmarshal(val, &line); err != nil {
		return nil, false, fmt.Errorf("decode quote: %w", err)
	}
	return &line, true, nil
}

func (c *RedisQuoteCache) Set(ctx context.Context, key string, value *entity.PricedLine, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
