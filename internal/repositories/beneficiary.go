package repositories

import (
	"context"
	"errors"
	"fmt"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BeneficiaryRepository interface {
	GetByVPA(ctx context.Context, vpa string) (*models.Beneficiary, error)
	Upsert(ctx context.Context, b *models.Beneficiary) error
}

type beneficiaryRepository struct {
	db *gorm.DB
}

func NewBeneficiaryRepository(db *gorm.DB) BeneficiaryRepository {
	return &beneficiaryRepository{db: db}
}

func (r *beneficiaryRepository) GetByVPA(ctx context.Context, vpa string) (*models.Beneficiary, error) {
	var b models.Beneficiary
	err := r.db.WithContext(ctx).Where("vpa = ?", vpa).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Upsert inserts or replaces the mapping for b.VPA.
func (r *beneficiaryRepository) Upsert(ctx context.Context, b *models.Beneficiary) error {
	if b.Status == "" {
		b.Status = models.BeneficiaryStatusActive
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vpa"}},
		DoUpdates: clause.AssignmentColumns([]string{"beneficiary_id", "name", "status", "updated_at"}),
	}).Create(b).Error
	if err != nil {
		return fmt.Errorf("upsert beneficiary: %w", err)
	}
	return nil
}
