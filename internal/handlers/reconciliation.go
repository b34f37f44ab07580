package handlers

import (
	"context"
	"time"

	"scanpay/internal/logger"
	"scanpay/internal/models"
	"scanpay/internal/services/reconcile"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Reconciler is the part of reconcile.Reconciler the API exposes.
type Reconciler interface {
	Pending(ctx context.Context, limit int) ([]models.Transaction, error)
	Run(ctx context.Context, cmd reconcile.Command) (reconcile.Output, error)
}

type ReconciliationHandler struct {
	reconciler Reconciler
	log        logger.Logger
}

func NewReconciliationHandler(r Reconciler, log logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: r, log: log}
}

// List returns settled payments whose payout failed.
func (h *ReconciliationHandler) List(c *fiber.Ctx) error {
	txs, err := h.reconciler.Pending(c.UserContext(), c.QueryInt("limit", reconcile.DefaultBatchSize))
	if err != nil {
		h.log.Error("failed to list partial failures", map[string]any{"error": err})
		return response.ServerError(c, "Failed to list partial failures")
	}
	return response.Success(c, "Partial failures retrieved", txs)
}

// Run retries every listed payout once.
func (h *ReconciliationHandler) Run(c *fiber.Ctx) error {
	out, err := h.reconciler.Run(c.UserContext(), reconcile.Command{
		Now:       time.Now(),
		BatchSize: c.QueryInt("limit", reconcile.DefaultBatchSize),
	})
	if err != nil {
		h.log.Error("reconciliation failed", map[string]any{"error": err})
		return response.ServerError(c, "Reconciliation failed")
	}
	return response.Success(c, "Reconciliation finished", out)
}
