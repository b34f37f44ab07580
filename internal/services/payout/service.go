// Package payout is the client for the fiat payout rail.
package payout

import (
	"context"
	"errors"
	"strings"

	"scanpay/internal/models"
	"scanpay/internal/utils/httpclient"
)

var ErrNoDestination = errors.New("payout needs a beneficiary id or a payee address")

type Service interface {
	Initiate(ctx context.Context, req TransferRequest) (*Receipt, error)
	RegisterBeneficiary(ctx context.Context, req BeneficiaryRequest) (*BeneficiaryResponse, error)
}

type HTTPClient struct {
	client *httpclient.Client
}

func NewHTTPClient(client *httpclient.Client) *HTTPClient {
	return &HTTPClient{client: client}
}

// Initiate sanitizes remarks before sending. A rejected transfer comes back
// as a receipt with Success false, not as an error.
func (c *HTTPClient) Initiate(ctx context.Context, req TransferRequest) (*Receipt, error) {
	if req.BeneficiaryID == "" && req.VPA == "" {
		return nil, ErrNoDestination
	}
	req.Remarks = SanitizeRemarks(req.Remarks)

	var receipt Receipt
	if err := c.client.Post(ctx, "/transfers", req, &receipt); err != nil {
		return nil, err
	}
	if receipt.TransferID == "" {
		receipt.TransferID = req.TransferID
	}
	return &receipt, nil
}

func (c *HTTPClient) RegisterBeneficiary(ctx context.Context, req BeneficiaryRequest) (*BeneficiaryResponse, error) {
	var resp BeneficiaryResponse
	if err := c.client.Post(ctx, "/beneficiaries", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SanitizeRemarks keeps ASCII letters and digits and truncates to MaxRemarksLength.
func SanitizeRemarks(s string) string {
	var b strings.Builder
	for i := 0; i < len(s) && b.Len() < MaxRemarksLength; i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// RemarksFor builds the transfer remark for a merchant reference.
func RemarksFor(merchantRef string) string {
	return SanitizeRemarks("Payment" + merchantRef)
}

// StatusOf maps a receipt onto the stored payout status.
func StatusOf(r *Receipt) string {
	if r == nil || !r.Success || strings.EqualFold(r.Status, RailStatusFailed) {
		return models.PayoutStatusFailed
	}
	if strings.EqualFold(r.Status, RailStatusPending) {
		return models.PayoutStatusPending
	}
	return models.PayoutStatusSuccess
}
