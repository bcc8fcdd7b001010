package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cartKey(userID, tenantSlug string) string {
	return fmt.Sprintf("cart:%s:%s", userID, tenantSlug)
}

// CartAdd adds product IDs to a tenant-scoped cart set
func (c *Client) CartAdd(ctx context.Context, userID, tenantSlug string, productIDs ...string) error {
	members := make([]interface{}, len(productIDs))
	for i, id := range productIDs {
		members[i] = id
	}
	return c.rdb.SAdd(ctx, cartKey(userID, tenantSlug), members...).Err()
}

// CartRemove removes a product ID from a tenant-scoped cart set
func (c *Client) CartRemove(ctx context.Context, userID, tenantSlug, productID string) error {
	return c.rdb.SRem(ctx, cartKey(userID, tenantSlug), productID).Err()
}

// CartList returns the product IDs in a tenant-scoped cart
func (c *Client) CartList(ctx context.Context, userID, tenantSlug string) ([]string, error) {
	return c.rdb.SMembers(ctx, cartKey(userID, tenantSlug)).Result()
}

// CartClear removes the tenant-scoped cart entirely
func (c *Client) CartClear(ctx context.Context, userID, tenantSlug string) error {
	return c.rdb.Del(ctx, cartKey(userID, tenantSlug)).Err()
}

// CacheSet stores a serialized value with TTL
func (c *Client) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("cache:%s", key), value, ttl).Err()
}

// CacheGet retrieves a serialized value; returns nil, nil on a miss
func (c *Client) CacheGet(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("cache:%s", key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// CacheDel invalidates a cached value
func (c *Client) CacheDel(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("cache:%s", key)).Err()
}

// FlagsSet stores checkout outcome flags for a user+tenant pair
func (c *Client) FlagsSet(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("flags:%s", key), value, ttl).Err()
}

// FlagsGet retrieves checkout outcome flags; empty string on a miss
func (c *Client) FlagsGet(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("flags:%s", key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// FlagsDel clears checkout outcome flags
func (c *Client) FlagsDel(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("flags:%s", key)).Err()
}

// AcquireLock acquires a short-lived lock. Used to keep a second purchase
// trigger from creating a duplicate provider session while one is in flight.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
