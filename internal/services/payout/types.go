package payout

import "github.com/shopspring/decimal"

// MaxRemarksLength is the longest remark the payout rail accepts.
const MaxRemarksLength = 30

// Rail statuses
const (
	RailStatusSuccess = "SUCCESS"
	RailStatusPending = "PENDING"
	RailStatusFailed  = "FAILED"
)

// TransferRequest pays the merchant. BeneficiaryID is preferred; VPA is the
// raw payee address used when no beneficiary is registered.
type TransferRequest struct {
	TransferID    string          `json:"transferId"`
	BeneficiaryID string          `json:"beneficiaryId,omitempty"`
	VPA           string          `json:"vpa,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Remarks       string          `json:"remarks"`
}

// Receipt is the rail's answer to a transfer.
type Receipt struct {
	Success    bool   `json:"success"`
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// BeneficiaryRequest registers a payee with the rail.
type BeneficiaryRequest struct {
	VPA  string `json:"vpa"`
	Name string `json:"name"`
}

type BeneficiaryResponse struct {
	BeneficiaryID string `json:"beneficiaryId"`
	Status        string `json:"status"`
}
