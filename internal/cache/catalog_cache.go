package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/connecta/citizen-service/internal/domain"
)

const (
	categoriesKey = "catalog:categories"
	servicesKey   = "catalog:services"
)

// CatalogCache keeps the catalog read paths off Postgres. Failures are
// treated as cache misses so Redis outages never break reads.
type CatalogCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewCatalogCache creates a cache with the given entry TTL.
func NewCatalogCache(client *redis.Client, logger *zap.Logger, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, logger: logger, ttl: ttl}
}

// GetCategories returns the cached category list, if present.
func (c *CatalogCache) GetCategories(ctx context.Context) ([]domain.Category, bool) {
	var categories []domain.Category
	if !c.get(ctx, categoriesKey, &categories) {
		return nil, false
	}
	return categories, true
}

// SetCategories stores the category list.
func (c *CatalogCache) SetCategories(ctx context.Context, categories []domain.Category) {
	c.set(ctx, categoriesKey, categories)
}

// GetServices returns the cached service list, if present.
func (c *CatalogCache) GetServices(ctx context.Context) ([]domain.CatalogService, bool) {
	var services []domain.CatalogService
	if !c.get(ctx, servicesKey, &services) {
		return nil, false
	}
	return services, true
}

// SetServices stores the service list.
func (c *CatalogCache) SetServices(ctx context.Context, services []domain.CatalogService) {
	c.set(ctx, servicesKey, services)
}

// Invalidate drops all catalog entries. Called after any catalog write.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, categoriesKey, servicesKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (c *CatalogCache) get(ctx context.Context, key string, target any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		c.logger.Warn("catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("catalog cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
