package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const notFoundMarker = "notfound"

// CachedProductRepository is a read-through cache in front of the product
// detail lookup. Listings and price lookups always hit the database.
type CachedProductRepository struct {
	realRepo    repository.ProductRepository
	redis       *redis.Client
	log         *zap.Logger
	ttl         time.Duration
	notFoundTTL time.Duration
}

var _ repository.ProductRepository = (*CachedProductRepository)(nil)

func NewCachedProductRepository(realRepo repository.ProductRepository, redis *redis.Client, log *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo:    realRepo,
		redis:       redis,
		log:         log.With(zap.String("component", "product_cache")),
		ttl:         5 * time.Minute,
		notFoundTTL: 1 * time.Minute,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, repository.ErrNotFound
		}

		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			c.log.Warn("cache_decode_failed", zap.String("key", key), zap.Error(err))
			break
		}

		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		c.log.Warn("cache_get_failed", zap.String("key", key), zap.Error(err))
	}

	product, err := c.realRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, c.notFoundTTL).Err(); setErr != nil {
				c.log.Warn("cache_set_failed", zap.String("key", key), zap.Error(setErr))
			}
		}
		return nil, err
	}

	jsonData, err := json.Marshal(product)
	if err != nil {
		c.log.Warn("cache_encode_failed", zap.String("key", key), zap.Error(err))
		return product, nil
	}

	if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		c.log.Warn("cache_set_failed", zap.String("key", key), zap.Error(err))
	}

	return product, nil
}

func (c *CachedProductRepository) invalidate(ctx context.Context, id int64) {
	key := productKey(id)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.log.Warn("cache_delete_failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := c.realRepo.Create(ctx, product); err != nil {
		return err
	}
	// Clears a negative entry left by an earlier lookup of this id.
	c.invalidate(ctx, product.ProductID)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := c.realRepo.Update(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, product.ProductID)
	return nil
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := c.realRepo.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedProductRepository) AddReview(ctx context.Context, review *models.Review) error {
	if err := c.realRepo.AddReview(ctx, review); err != nil {
		return err
	}
	c.invalidate(ctx, review.ProductID)
	return nil
}

func (c *CachedProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	return c.realRepo.List(ctx, filter)
}

func (c *CachedProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	return c.realRepo.GetByIDs(ctx, ids)
}
