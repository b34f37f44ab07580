package handlers

import (
	"context"
	"errors"
	"time"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/logger"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/utils/response"
	"scanpay/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const maxTransactionLimit = 100

// StatusNotifier publishes a record after its payout status changes.
type StatusNotifier interface {
	NotifyPaymentStatus(ctx context.Context, tx *models.Transaction) error
}

type TransactionHandler struct {
	repo     repositories.TransactionRepository
	notifier StatusNotifier
	log      logger.Logger
}

func NewTransactionHandler(repo repositories.TransactionRepository, notifier StatusNotifier, log logger.Logger) *TransactionHandler {
	return &TransactionHandler{repo: repo, notifier: notifier, log: log}
}

type createTransactionRequest struct {
	TransactionRef string          `json:"transactionRef" validate:"required,max=64"`
	UpiID          string          `json:"upiId" validate:"required,max=255"`
	MerchantName   string          `json:"merchantName" validate:"max=255"`
	QRType         string          `json:"qrType" validate:"omitempty,oneof=personal static_merchant dynamic_merchant"`
	InrAmount      decimal.Decimal `json:"inrAmount"`
	TotalUsdToPay  decimal.Decimal `json:"totalUsdToPay"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	NetworkFee     decimal.Decimal `json:"networkFee"`
	ChainID        int64           `json:"chainId" validate:"required,gt=0"`
	Step           string          `json:"step" validate:"max=32"`
	Metadata       models.JSON     `json:"metadata"`
	ScannedAt      time.Time       `json:"scannedAt"`
}

func (r createTransactionRequest) toModel() *models.Transaction {
	scannedAt := r.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now().UTC()
	}
	return &models.Transaction{
		TransactionRef: r.TransactionRef,
		UpiID:          r.UpiID,
		MerchantName:   r.MerchantName,
		QRType:         r.QRType,
		InrAmount:      r.InrAmount,
		TotalUsdToPay:  r.TotalUsdToPay,
		ExchangeRate:   r.ExchangeRate,
		NetworkFee:     r.NetworkFee,
		ChainID:        r.ChainID,
		Step:           r.Step,
		Metadata:       r.Metadata,
		ScannedAt:      scannedAt,
	}
}

// Create stores a new attempt. Settlement and payout fields always start
// unset regardless of the body.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req createTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationError(c, "Invalid request", err)
	}
	if !req.InrAmount.IsPositive() || !req.TotalUsdToPay.IsPositive() {
		return response.BadRequest(c, "Amounts must be greater than zero")
	}

	tx := req.toModel()
	if _, err := h.repo.Create(c.UserContext(), tx); err != nil {
		h.log.Error("failed to create transaction", map[string]any{"ref": req.TransactionRef, "error": err})
		return response.ServerError(c, "Failed to create transaction")
	}
	return response.Created(c, "Transaction created", tx)
}

// Update applies a partial update. A different hash over a stored one is a
// 409; a change of payout status is published to the merchant.
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	var update models.TransactionUpdate
	if err := c.BodyParser(&update); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(update); err != nil {
		return response.ValidationError(c, "Invalid request", err)
	}

	ctx := c.UserContext()
	if err := h.repo.Update(ctx, id, update); err != nil {
		if errors.Is(err, appErrors.ErrHashImmutable) || errors.Is(err, appErrors.ErrRecordNotFound) {
			return response.DomainError(c, err)
		}
		h.log.Error("failed to update transaction", map[string]any{"id": id, "error": err})
		return response.ServerError(c, "Failed to update transaction")
	}

	tx, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return response.DomainError(c, err)
	}
	if update.PayoutStatus != nil && h.notifier != nil {
		// Delivery failures are logged by the notifier and never fail the update.
		_ = h.notifier.NotifyPaymentStatus(ctx, tx)
	}
	return response.Success(c, "Transaction updated", tx)
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tx, err := h.repo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, appErrors.ErrRecordNotFound) {
			return response.DomainError(c, err)
		}
		return response.ServerError(c, "Failed to fetch transaction")
	}
	return response.Success(c, "Transaction retrieved", tx)
}

// List returns the newest records paid from ?wallet=.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	wallet := c.Query("wallet")
	if wallet == "" {
		return response.BadRequest(c, "wallet is required")
	}
	limit := c.QueryInt("limit", maxTransactionLimit)
	if limit <= 0 || limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	txs, err := h.repo.ListByWallet(c.UserContext(), wallet, limit)
	if err != nil {
		h.log.Error("failed to list transactions", map[string]any{"wallet": wallet, "error": err})
		return response.ServerError(c, "Failed to list transactions")
	}
	return response.Success(c, "Transactions retrieved", txs)
}
