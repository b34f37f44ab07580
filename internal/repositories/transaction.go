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

// DefaultListLimit caps list queries that pass no limit.
const DefaultListLimit = 100

type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) (string, error)
	Update(ctx context.Context, id string, update models.TransactionUpdate) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	ListByWallet(ctx context.Context, wallet string, limit int) ([]models.Transaction, error)
	ListPartialFailures(ctx context.Context, limit int) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) (string, error) {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}
	return tx.ID, nil
}

// Update applies the set fields under a row lock. A hash, once stored, is
// never replaced by a different one.
func (r *transactionRepository) Update(ctx context.Context, id string, update models.TransactionUpdate) error {
	cols := update.Columns()
	if len(cols) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var current models.Transaction
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErrors.ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		if err := CheckHashUpdate(&current, update); err != nil {
			return err
		}
		return db.Model(&models.Transaction{}).Where("id = ?", id).Updates(cols).Error
	})
}

// CheckHashUpdate rejects an update that would overwrite a stored hash.
func CheckHashUpdate(current *models.Transaction, update models.TransactionUpdate) error {
	if update.TxnHash == nil || current.TxnHash == nil || *current.TxnHash == "" {
		return nil
	}
	if *current.TxnHash != *update.TxnHash {
		return appErrors.ErrHashImmutable
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, wallet string, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("LOWER(wallet_address) = LOWER(?)", wallet).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&txs).Error
	return txs, err
}

// ListPartialFailures returns settled records whose payout failed, oldest first.
func (r *transactionRepository) ListPartialFailures(ctx context.Context, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("is_success = ? AND payout_triggered = ? AND payout_status = ?", true, true, models.PayoutStatusFailed).
		Order("created_at ASC").
		Limit(clampLimit(limit)).
		Find(&txs).Error
	return txs, err
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
