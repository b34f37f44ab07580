package payment

import (
	"context"
	"time"

	"scanpay/internal/models"

	"github.com/shopspring/decimal"
)

// Service drives scan-to-pay attempts.
type Service interface {
	// Prepare chooses the amount and fetches a quote. Nothing is persisted.
	Prepare(ctx context.Context, scan Scan, userAmount string, chainID int64) (*Attempt, error)
	// Run is Prepare followed by Confirm.
	Run(ctx context.Context, scan Scan, userAmount string, chainID int64) (*Outcome, error)
}

// TransactionStore persists the audited record. The server implements it
// over gorm and the CLI over the server's HTTP API.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) (string, error)
	Update(ctx context.Context, id string, update models.TransactionUpdate) error
}

// BeneficiaryResolver maps a payee address to a registered payout
// beneficiary id. It returns "" when none is registered.
type BeneficiaryResolver interface {
	Resolve(ctx context.Context, vpa string) (string, error)
}

// SubmissionGuard stops two submissions of the same attempt key.
type SubmissionGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Config holds the payment rules.
type Config struct {
	MaxAmount decimal.Decimal
	Treasury  string
	GuardTTL  time.Duration
}
