package conversion

import (
	"context"
	"time"

	"scanpay/internal/logger"
	"scanpay/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

// CachedService keeps quotes in Redis for a short TTL, keyed by chain and
// amount, so re-entering the same amount does not hit the rate service.
type CachedService struct {
	next  Service
	cache *cache.CacheService
	ttl   time.Duration
	log   logger.Logger
}

func NewCachedService(next Service, c *cache.CacheService, ttl time.Duration, log logger.Logger) *CachedService {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &CachedService{next: next, cache: c, ttl: ttl, log: log}
}

func (s *CachedService) key(fiat decimal.Decimal, chainID int64) string {
	return s.cache.GenerateKey("quote", decimal.NewFromInt(chainID).String(), fiat.String())
}

func (s *CachedService) Quote(ctx context.Context, fiat decimal.Decimal, chainID int64) (*Quote, error) {
	key := s.key(fiat, chainID)

	var cached Quote
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("quote cache read failed", map[string]any{"key": key, "error": err})
	}
	if found && cached.Matches(fiat, chainID) {
		return &cached, nil
	}

	q, err := s.next.Quote(ctx, fiat, chainID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetWithTTL(ctx, key, q, s.ttl); err != nil {
		s.log.Warn("quote cache write failed", map[string]any{"key": key, "error": err})
	}
	return q, nil
}
