package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/models"
)

const (
	orderKeyPrefix  = "order:"
	productListKey  = "products:all"
	defaultCacheTTL = 5 * time.Minute
)

// RedisCache implements Cache using Redis. Every operation is best-effort;
// callers treat errors as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(cfg config.RedisConfig, logger *slog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
	}
}

func (c *RedisCache) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss", "order_id", id)
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", "order_id", id, "error", err)
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}

	c.logger.Debug("Cache hit", "order_id", id)
	return &order, nil
}

func (c *RedisCache) SetOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, orderKeyPrefix+order.ID, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", "order_id", order.ID, "error", err)
		return err
	}
	return nil
}

func (c *RedisCache) GetProductList(ctx context.Context) ([]*models.Product, error) {
	data, err := c.client.Get(ctx, productListKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", "key", productListKey, "error", err)
		return nil, err
	}

	var products []*models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *RedisCache) SetProductList(ctx context.Context, products []*models.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productListKey, data, c.ttl).Err()
}

func (c *RedisCache) InvalidateProductList(ctx context.Context) error {
	return c.client.Del(ctx, productListKey).Err()
}

// NoopCache satisfies Cache when caching is disabled; every read misses.
type NoopCache struct{}

func (NoopCache) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return nil, nil
}

func (NoopCache) SetOrder(ctx context.Context, order *models.Order) error { return nil }

func (NoopCache) GetProductList(ctx context.Context) ([]*models.Product, error) {
	return nil, nil
}

func (NoopCache) SetProductList(ctx context.Context, products []*models.Product) error {
	return nil
}

func (NoopCache) InvalidateProductList(ctx context.Context) error { return nil }
