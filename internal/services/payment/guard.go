package payment

import (
	"context"
	"sync"
	"time"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/repositories/cache"

	"github.com/google/uuid"
)

// MemoryGuard is a process-local SubmissionGuard.
type MemoryGuard struct {
	mu      sync.Mutex
	now     func() time.Time
	holders map[string]time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{now: time.Now, holders: make(map[string]time.Time)}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if exp, ok := g.holders[key]; ok && now.Before(exp) {
		return appErrors.ErrAlreadySubmitted
	}
	g.holders[key] = now.Add(ttl)
	return nil
}

func (g *MemoryGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	delete(g.holders, key)
	g.mu.Unlock()
	return nil
}

// RedisGuard claims keys with SETNX so concurrent processes sharing Redis
// cannot both submit.
type RedisGuard struct {
	cache *cache.CacheService
	owner string
}

func NewRedisGuard(c *cache.CacheService) *RedisGuard {
	return &RedisGuard{cache: c, owner: uuid.NewString()}
}

func (g *RedisGuard) key(k string) string {
	return g.cache.GenerateKey("payment", "submit", k)
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := g.cache.Claim(ctx, g.key(key), g.owner, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.ErrAlreadySubmitted
	}
	return nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.cache.Delete(ctx, g.key(key))
}
