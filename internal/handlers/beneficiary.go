package handlers

import (
	"context"
	"errors"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/logger"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/payout"
	"scanpay/internal/utils/response"
	"scanpay/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

// CacheInvalidator drops a cached beneficiary lookup.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, vpa string) error
}

type BeneficiaryHandler struct {
	repo    repositories.BeneficiaryRepository
	cache   CacheInvalidator
	payouts payout.Service
	log     logger.Logger
}

func NewBeneficiaryHandler(repo repositories.BeneficiaryRepository, cache CacheInvalidator, payouts payout.Service, log logger.Logger) *BeneficiaryHandler {
	return &BeneficiaryHandler{repo: repo, cache: cache, payouts: payouts, log: log}
}

type upsertBeneficiaryRequest struct {
	VPA           string `json:"vpa" validate:"required,max=255,contains=@"`
	Name          string `json:"name" validate:"max=100"`
	BeneficiaryID string `json:"beneficiaryId" validate:"max=64"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (h *BeneficiaryHandler) Get(c *fiber.Ctx) error {
	b, err := h.repo.GetByVPA(c.UserContext(), c.Params("vpa"))
	if err != nil {
		if errors.Is(err, appErrors.ErrRecordNotFound) {
			return response.NotFound(c, "Beneficiary not found")
		}
		return response.ServerError(c, "Failed to fetch beneficiary")
	}
	return response.Success(c, "Beneficiary retrieved", b)
}

// Upsert stores a payee mapping. Without a beneficiaryId the payee is first
// registered with the payout rail.
func (h *BeneficiaryHandler) Upsert(c *fiber.Ctx) error {
	var req upsertBeneficiaryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return response.ValidationError(c, "Invalid request", err)
	}

	ctx := c.UserContext()
	if req.BeneficiaryID == "" {
		resp, err := h.payouts.RegisterBeneficiary(ctx, payout.BeneficiaryRequest{VPA: req.VPA, Name: req.Name})
		if err != nil {
			h.log.Error("beneficiary registration failed", map[string]any{"vpa": req.VPA, "error": err})
			return response.Error(c, fiber.StatusBadGateway, "Payout rail rejected the beneficiary")
		}
		req.BeneficiaryID = resp.BeneficiaryID
	}

	b := &models.Beneficiary{
		VPA:           req.VPA,
		BeneficiaryID: req.BeneficiaryID,
		Name:          req.Name,
		Status:        req.Status,
	}
	if err := h.repo.Upsert(ctx, b); err != nil {
		h.log.Error("failed to store beneficiary", map[string]any{"vpa": req.VPA, "error": err})
		return response.ServerError(c, "Failed to store beneficiary")
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, req.VPA); err != nil {
			h.log.Warn("failed to invalidate beneficiary cache", map[string]any{"vpa": req.VPA, "error": err})
		}
	}
	return response.Success(c, "Beneficiary stored", b)
}
