package repositories

import (
	"context"
	"errors"
	"time"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/logger"
	"scanpay/internal/models"
	"scanpay/internal/repositories/cache"
)

// BeneficiaryResolver looks up active beneficiaries through Redis before
// hitting Postgres.
type BeneficiaryResolver struct {
	repo  BeneficiaryRepository
	cache *cache.CacheService
	ttl   time.Duration
	log   logger.Logger
}

func NewBeneficiaryResolver(repo BeneficiaryRepository, c *cache.CacheService, ttl time.Duration, log logger.Logger) *BeneficiaryResolver {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &BeneficiaryResolver{repo: repo, cache: c, ttl: ttl, log: log}
}

func (r *BeneficiaryResolver) key(vpa string) string {
	return r.cache.GenerateKey("beneficiary", "vpa", vpa)
}

// Resolve returns the beneficiary id for vpa, or "" when none is active.
func (r *BeneficiaryResolver) Resolve(ctx context.Context, vpa string) (string, error) {
	var cached models.Beneficiary
	if r.cache != nil {
		found, err := r.cache.Get(ctx, r.key(vpa), &cached)
		if err != nil {
			r.log.Warn("beneficiary cache read failed", map[string]any{"vpa": vpa, "error": err})
		} else if found {
			return activeID(&cached), nil
		}
	}

	b, err := r.repo.GetByVPA(ctx, vpa)
	if errors.Is(err, appErrors.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.SetWithTTL(ctx, r.key(vpa), b, r.ttl); err != nil {
			r.log.Warn("beneficiary cache write failed", map[string]any{"vpa": vpa, "error": err})
		}
	}
	return activeID(b), nil
}

// Invalidate drops the cached entry after an upsert.
func (r *BeneficiaryResolver) Invalidate(ctx context.Context, vpa string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, r.key(vpa))
}

func activeID(b *models.Beneficiary) string {
	if b.Status != models.BeneficiaryStatusActive {
		return ""
	}
	return b.BeneficiaryID
}
