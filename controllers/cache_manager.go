package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-service/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultCacheTTL        = 5 * time.Minute
	ProductCachePrefix     = "storefront:product:"
	ProductListCachePrefix = "storefront:products:v:"
	CacheVersionKey        = "storefront:products:version"
)

// ProductListPage is the cached body of GET /api/products.
type ProductListPage struct {
	Products []models.Product `json:"products"`
	Meta     PageMeta         `json:"meta"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// CacheManager caches product reads in Redis. Lists are keyed by a version
// counter so one INCR invalidates every cached page.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCacheManager accepts a nil client, in which case every lookup misses.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{redis: client, ttl: DefaultCacheTTL}
}

func (cm *CacheManager) GetProductList(ctx context.Context, page, perPage int, filters ProductFilters) (*ProductListPage, bool) {
	if cm.redis == nil {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}
	cached, err := cm.redis.Get(ctx, listCacheKey(version, page, perPage, filters)).Bytes()
	if err != nil {
		return nil, false
	}
	var out ProductListPage
	if err := json.Unmarshal(cached, &out); err != nil {
		zap.L().Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	return &out, true
}

func (cm *CacheManager) SetProductListAsync(page, perPage int, filters ProductFilters, body *ProductListPage) {
	if cm.redis == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil {
			return
		}
		data, err := json.Marshal(body)
		if err != nil {
			zap.L().Warn("Failed to marshal product list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, listCacheKey(version, page, perPage, filters), data, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache product list", zap.Error(err))
		}
	}()
}

func (cm *CacheManager) GetProduct(ctx context.Context, id string) (*models.Product, bool) {
	if cm.redis == nil {
		return nil, false
	}
	cached, err := cm.redis.Get(ctx, ProductCachePrefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(cached, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (cm *CacheManager) SetProductAsync(id string, product *models.Product) {
	if cm.redis == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data, err := json.Marshal(product)
		if err != nil {
			zap.L().Warn("Failed to marshal product for cache", zap.Error(err), zap.String("product_id", id))
			return
		}
		if err := cm.redis.Set(bgCtx, ProductCachePrefix+id, data, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache product", zap.Error(err), zap.String("product_id", id))
		}
	}()
}

// Invalidate bumps the list version.
func (cm *CacheManager) Invalidate(ctx context.Context) error {
	if cm.redis == nil {
		return nil
	}
	v, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	zap.L().Debug("Product cache invalidated", zap.Int64("new_version", v))
	return nil
}

// InvalidateProducts drops the listed detail entries and every cached list.
// Stock changes from checkout and order transitions go through here too.
func (cm *CacheManager) InvalidateProducts(ctx context.Context, ids ...string) {
	if cm.redis == nil {
		return
	}
	if err := cm.Invalidate(ctx); err != nil {
		zap.L().Error("Failed to invalidate product cache", zap.Error(err))
	}
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ProductCachePrefix+id)
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cm.redis.Del(bgCtx, keys...).Err(); err != nil {
			zap.L().Warn("Failed to delete product cache", zap.Error(err), zap.Strings("keys", keys))
		}
	}()
}

func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if errors.Is(err, redis.Nil) {
			if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err == nil {
				continue
			}
		}
		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

func listCacheKey(version int64, page, perPage int, f ProductFilters) string {
	return fmt.Sprintf("%s%d:p:%d:l:%d:f:%s:c:%s:cid:%s",
		ProductListCachePrefix, version, page, perPage, f.Featured, f.Category, f.CategoryID)
}
