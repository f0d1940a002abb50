package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/felipe2640/garantias-service/internal/domain"
)

const supplierCacheTTL = 10 * time.Minute

// cachedSupplierRepository adds a Redis cache-aside layer in front of supplier
// lookups. The workflow service resolves a supplier on every INTERNO exit, so the
// hot path avoids a database round trip. Cache failures degrade to the database.
type cachedSupplierRepository struct {
	inner  SupplierRepository
	client *redis.Client
	logger *zap.Logger
}

// NewCachedSupplierRepository wraps a supplier repository with Redis caching.
// Passing a nil client returns the inner repository unchanged.
func NewCachedSupplierRepository(inner SupplierRepository, client *redis.Client, logger *zap.Logger) SupplierRepository {
	if client == nil {
		return inner
	}
	return &cachedSupplierRepository{inner: inner, client: client, logger: logger}
}

func supplierCacheKey(id, tenantID string) string {
	return fmt.Sprintf("supplier:%s:%s", tenantID, id)
}

func (r *cachedSupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	if err := r.inner.Create(ctx, supplier); err != nil {
		return err
	}
	r.store(ctx, supplier)
	return nil
}

func (r *cachedSupplierRepository) GetByID(ctx context.Context, id, tenantID string) (*domain.Supplier, error) {
	key := supplierCacheKey(id, tenantID)
	if payload, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var supplier domain.Supplier
		if err := json.Unmarshal(payload, &supplier); err == nil {
			return &supplier, nil
		}
	} else if err != redis.Nil {
		r.logger.Debug("supplier cache read failed", zap.Error(err))
	}

	supplier, err := r.inner.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, supplier)
	return supplier, nil
}

func (r *cachedSupplierRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Supplier, error) {
	return r.inner.ListByTenant(ctx, tenantID)
}

func (r *cachedSupplierRepository) store(ctx context.Context, supplier *domain.Supplier) {
	payload, err := json.Marshal(supplier)
	if err != nil {
		return
	}
	key := supplierCacheKey(supplier.ID, supplier.TenantID)
	if err := r.client.Set(ctx, key, payload, supplierCacheTTL).Err(); err != nil {
		r.logger.Debug("supplier cache write failed", zap.Error(err))
	}
}
