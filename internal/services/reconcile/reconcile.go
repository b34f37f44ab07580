// Package reconcile retries payouts for payments whose token transfer settled
// but whose payout failed. It never runs inside a payment attempt.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"scanpay/internal/logger"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
	"scanpay/internal/services/payment"
	"scanpay/internal/services/payout"
)

// DefaultBatchSize bounds one pass.
const DefaultBatchSize = 50

type Repository interface {
	ListPartialFailures(ctx context.Context, limit int) ([]models.Transaction, error)
	Update(ctx context.Context, id string, update models.TransactionUpdate) error
}

type BeneficiaryResolver interface {
	Resolve(ctx context.Context, vpa string) (string, error)
}

type Notifier interface {
	NotifyPaymentStatus(ctx context.Context, tx *models.Transaction) error
}

type Command struct {
	Now       time.Time
	BatchSize int
}

// Output counts what one pass did with the records it scanned.
type Output struct {
	Scanned   int `json:"scanned"`
	Recovered int `json:"recovered"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type Reconciler struct {
	repo          Repository
	payouts       payout.Service
	beneficiaries BeneficiaryResolver
	notifier      Notifier
	log           logger.Logger
	metrics       metrics.Recorder
}

func New(repo Repository, payouts payout.Service, beneficiaries BeneficiaryResolver, notifier Notifier, log logger.Logger, rec metrics.Recorder) *Reconciler {
	if repo == nil {
		panic("repository is required")
	}
	if payouts == nil {
		panic("payout service is required")
	}
	if beneficiaries == nil {
		panic("beneficiary resolver is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}
	if log == nil {
		panic("logger is required")
	}
	if rec == nil {
		panic("metrics recorder is required")
	}
	return &Reconciler{
		repo:          repo,
		payouts:       payouts,
		beneficiaries: beneficiaries,
		notifier:      notifier,
		log:           log,
		metrics:       rec,
	}
}

// Pending lists the records a pass would retry.
func (r *Reconciler) Pending(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	return r.repo.ListPartialFailures(ctx, limit)
}

// Run retries each partial failure once, reusing the transfer id of the
// original payout so the rail can deduplicate.
func (r *Reconciler) Run(ctx context.Context, cmd Command) (Output, error) {
	var out Output
	if cmd.Now.IsZero() {
		cmd.Now = time.Now()
	}

	txs, err := r.Pending(ctx, cmd.BatchSize)
	if err != nil {
		return out, fmt.Errorf("list partial failures: %w", err)
	}

	for i := range txs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Scanned++
		tx := &txs[i]

		if !tx.IsPartialFailure() || tx.PayoutTransferID == nil || *tx.PayoutTransferID == "" {
			out.Skipped++
			continue
		}

		status, err := r.retry(ctx, tx)
		if err != nil {
			out.Errors++
			r.log.Error("payout retry failed", map[string]any{"transactionId": tx.ID, "error": err})
			continue
		}
		r.metrics.IncCounter("reconcile_payout", map[string]string{metrics.LabelResult: status})

		switch status {
		case models.PayoutStatusSuccess:
			out.Recovered++
		case models.PayoutStatusPending:
			out.Pending++
		default:
			out.Failed++
			continue
		}

		update := models.TransactionUpdate{PayoutStatus: &status}
		step := string(payment.StepCompleted)
		update.Step = &step
		if status == models.PayoutStatusSuccess {
			paidAt := cmd.Now.UTC()
			update.PaidAt = &paidAt
		}
		if err := r.repo.Update(ctx, tx.ID, update); err != nil {
			out.Errors++
			r.log.Error("failed to record recovered payout", map[string]any{"transactionId": tx.ID, "error": err})
			continue
		}
		update.Apply(tx)
		// Delivery failures are already logged by the notifier.
		_ = r.notifier.NotifyPaymentStatus(ctx, tx)
	}

	r.log.Info("reconciliation pass finished", map[string]any{
		"scanned":   out.Scanned,
		"recovered": out.Recovered,
		"pending":   out.Pending,
		"failed":    out.Failed,
		"skipped":   out.Skipped,
		"errors":    out.Errors,
	})
	return out, nil
}

// retry returns the payout status of one re-initiated transfer. A rail error
// is reported as a failed status, not as an error.
func (r *Reconciler) retry(ctx context.Context, tx *models.Transaction) (string, error) {
	beneficiaryID, err := r.beneficiaries.Resolve(ctx, tx.UpiID)
	if err != nil {
		return "", fmt.Errorf("resolve beneficiary: %w", err)
	}

	receipt, err := r.payouts.Initiate(ctx, payout.TransferRequest{
		TransferID:    *tx.PayoutTransferID,
		BeneficiaryID: beneficiaryID,
		VPA:           tx.UpiID,
		Amount:        tx.InrAmount,
		Remarks:       payout.RemarksFor(merchantRef(tx)),
	})
	if err != nil {
		r.log.Warn("payout rail rejected retry", map[string]any{"transactionId": tx.ID, "error": err})
		return models.PayoutStatusFailed, nil
	}
	return payout.StatusOf(receipt), nil
}

func merchantRef(tx *models.Transaction) string {
	if tx.Metadata == nil {
		return ""
	}
	ref, _ := tx.Metadata["merchantRef"].(string)
	return ref
}

// Start runs a pass every interval until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration, batchSize int) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := r.Run(ctx, Command{Now: now, BatchSize: batchSize}); err != nil && ctx.Err() == nil {
				r.log.Error("reconciliation pass failed", map[string]any{"error": err})
			}
		}
	}
}
