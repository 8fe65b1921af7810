/**
 * @description
 * This file implements a Redis read-through cache in front of promotion reads.
 * Single-promotion lookups dominate traffic (every subscription create checks
 * the referenced promotion), so those are cached with a short TTL; any write
 * to a promotion invalidates its entry before the write is acknowledged.
 * Cache failures are logged and degrade to database reads, never to request
 * failures.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promopulse/promotion-service/internal/domain"
)

// promotionStore is the slice of Repository the cache decorates.
type promotionStore interface {
	CreatePromotion(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error)
	GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error)
	ListPromotions(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, int, error)
	UpdatePromotionFields(ctx context.Context, id int64, current domain.PromotionStatus, patch domain.UpdatePromotionRequest) (*domain.Promotion, error)
	UpdatePromotionStatus(ctx context.Context, id int64, current, target domain.PromotionStatus) (*domain.Promotion, error)
}

// CachedPromotionRepository decorates promotion reads with a Redis cache.
type CachedPromotionRepository struct {
	store  promotionStore
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCachedPromotionRepository creates the cache decorator.
func NewCachedPromotionRepository(store promotionStore, client redis.UniversalClient, prefix string, ttl time.Duration) *CachedPromotionRepository {
	if prefix == "" {
		prefix = "promopulse:promotion"
	}
	return &CachedPromotionRepository{store: store, client: client, prefix: prefix, ttl: ttl}
}

func (c *CachedPromotionRepository) key(id int64) string {
	return fmt.Sprintf("%s:%d", c.prefix, id)
}

// GetPromotion serves from Redis when possible, falling back to the database.
func (c *CachedPromotionRepository) GetPromotion(ctx context.Context, id int64) (*domain.Promotion, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == nil {
		var p domain.Promotion
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// Unreadable entry: drop it and fall through to the database.
		c.invalidate(ctx, id)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("level=warn component=promotion_cache msg=\"cache read failed\" promotion_id=%d err=%v", id, err)
	}

	p, err := c.store.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, c.key(id), encoded, c.ttl).Err(); err != nil {
			log.Printf("level=warn component=promotion_cache msg=\"cache write failed\" promotion_id=%d err=%v", id, err)
		}
	}
	return p, nil
}

// CreatePromotion delegates to the store. Nothing to invalidate for a new id.
func (c *CachedPromotionRepository) CreatePromotion(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error) {
	return c.store.CreatePromotion(ctx, p)
}

// ListPromotions always reads the database; listings are not cached.
func (c *CachedPromotionRepository) ListPromotions(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, int, error) {
	return c.store.ListPromotions(ctx, filter)
}

// UpdatePromotionFields invalidates the entry before delegating so a stale
// read cannot be re-cached between the write and the invalidation.
func (c *CachedPromotionRepository) UpdatePromotionFields(ctx context.Context, id int64, current domain.PromotionStatus, patch domain.UpdatePromotionRequest) (*domain.Promotion, error) {
	c.invalidate(ctx, id)
	p, err := c.store.UpdatePromotionFields(ctx, id, current, patch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return p, nil
}

// UpdatePromotionStatus invalidates around the write like UpdatePromotionFields.
func (c *CachedPromotionRepository) UpdatePromotionStatus(ctx context.Context, id int64, current, target domain.PromotionStatus) (*domain.Promotion, error) {
	c.invalidate(ctx, id)
	p, err := c.store.UpdatePromotionStatus(ctx, id, current, target)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return p, nil
}

func (c *CachedPromotionRepository) invalidate(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		log.Printf("level=warn component=promotion_cache msg=\"cache invalidation failed\" promotion_id=%d err=%v", id, err)
	}
}
