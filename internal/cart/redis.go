package cart

import (
	"context"

	"marketplace/internal/redisclient"
)

// RedisStore backs carts with Redis sets
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a Redis-backed cart store
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Add(ctx context.Context, userID, tenantSlug string, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	return s.client.CartAdd(ctx, userID, tenantSlug, productIDs...)
}

func (s *RedisStore) Remove(ctx context.Context, userID, tenantSlug, productID string) error {
	return s.client.CartRemove(ctx, userID, tenantSlug, productID)
}

func (s *RedisStore) List(ctx context.Context, userID, tenantSlug string) ([]string, error) {
	return s.client.CartList(ctx, userID, tenantSlug)
}

func (s *RedisStore) Clear(ctx context.Context, userID, tenantSlug string) error {
	return s.client.CartClear(ctx, userID, tenantSlug)
}
