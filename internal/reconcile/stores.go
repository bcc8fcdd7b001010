package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketplace/internal/redisclient"
)

func outcomeKey(userID, tenantSlug string) string {
	return fmt.Sprintf("%s:%s", userID, tenantSlug)
}

// RedisFlagStore keeps outcome flags in Redis so they survive the redirect
// round-trip through the payment provider.
type RedisFlagStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisFlagStore creates a Redis-backed flag store
func NewRedisFlagStore(client *redisclient.Client, ttl time.Duration) *RedisFlagStore {
	return &RedisFlagStore{client: client, ttl: ttl}
}

func (s *RedisFlagStore) Set(ctx context.Context, userID, tenantSlug string, flags Flags) error {
	value := ""
	switch {
	case flags.Success:
		value = "success"
	case flags.Cancel:
		value = "cancel"
	default:
		return s.Clear(ctx, userID, tenantSlug)
	}
	return s.client.FlagsSet(ctx, outcomeKey(userID, tenantSlug), value, s.ttl)
}

func (s *RedisFlagStore) Get(ctx context.Context, userID, tenantSlug string) (Flags, error) {
	value, err := s.client.FlagsGet(ctx, outcomeKey(userID, tenantSlug))
	if err != nil {
		return Flags{}, err
	}
	return Flags{Success: value == "success", Cancel: value == "cancel"}, nil
}

func (s *RedisFlagStore) Clear(ctx context.Context, userID, tenantSlug string) error {
	return s.client.FlagsDel(ctx, outcomeKey(userID, tenantSlug))
}

// MemoryFlagStore is an in-memory flag store for tests
type MemoryFlagStore struct {
	mu    sync.Mutex
	flags map[string]Flags
}

// NewMemoryFlagStore creates an in-memory flag store
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]Flags)}
}

func (s *MemoryFlagStore) Set(_ context.Context, userID, tenantSlug string, flags Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[outcomeKey(userID, tenantSlug)] = flags
	return nil
}

func (s *MemoryFlagStore) Get(_ context.Context, userID, tenantSlug string) (Flags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[outcomeKey(userID, tenantSlug)], nil
}

func (s *MemoryFlagStore) Clear(_ context.Context, userID, tenantSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, outcomeKey(userID, tenantSlug))
	return nil
}

// RedisGuard debounces purchase triggers with a short-TTL SetNX lock
type RedisGuard struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisGuard creates a Redis-backed purchase guard
func NewRedisGuard(client *redisclient.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, userID, tenantSlug string) (bool, error) {
	return g.client.AcquireLock(ctx, "purchase:"+outcomeKey(userID, tenantSlug), g.ttl)
}

func (g *RedisGuard) Release(ctx context.Context, userID, tenantSlug string) error {
	return g.client.ReleaseLock(ctx, "purchase:"+outcomeKey(userID, tenantSlug))
}

// MemoryGuard is an in-memory purchase guard for tests
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryGuard creates an in-memory purchase guard
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]bool)}
}

func (g *MemoryGuard) Acquire(_ context.Context, userID, tenantSlug string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := outcomeKey(userID, tenantSlug)
	if g.held[k] {
		return false, nil
	}
	g.held[k] = true
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, userID, tenantSlug string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, outcomeKey(userID, tenantSlug))
	return nil
}
