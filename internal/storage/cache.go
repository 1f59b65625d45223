package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shop-bot/internal/model"
	"shop-bot/pkg/redis"
)

const activeProductsKey = "products:active"

type ProductSource interface {
	ActiveProducts(ctx context.Context) ([]model.Product, error)
}

// CachedProducts is a read-through Redis cache in front of the product
// table. Redis problems never fail a read; the source is queried instead.
type CachedProducts struct {
	source ProductSource
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProducts(source ProductSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProducts {
	return &CachedProducts{source: source, redis: client, ttl: ttl, logger: logger}
}

func (c *CachedProducts) ActiveProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := c.redis.GetJSON(ctx, activeProductsKey, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, redis.ErrNotFound) {
		c.logger.Warn("Product cache read failed", zap.Error(err))
	}

	products, err = c.source.ActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.redis.SetJSON(ctx, activeProductsKey, products, c.ttl); err != nil {
		c.logger.Warn("Product cache write failed", zap.Error(err))
	}
	return products, nil
}
