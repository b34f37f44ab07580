package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payout statuses
const (
	PayoutStatusPending = "pending"
	PayoutStatusSuccess = "success"
	PayoutStatusFailed  = "failed"
)

// Transaction is the audited record of one scan-to-pay attempt. It is created
// after a successful quote and updated at each step boundary; it is never
// deleted by the payment flow.
type Transaction struct {
	ID               string          `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionRef   string          `gorm:"uniqueIndex;not null" json:"transactionRef"`
	UpiID            string          `gorm:"index;not null" json:"upiId"`
	MerchantName     string          `json:"merchantName"`
	QRType           string          `gorm:"column:qr_type" json:"qrType"`
	InrAmount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"inrAmount"`
	TotalUsdToPay    decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"totalUsdToPay"`
	ExchangeRate     decimal.Decimal `gorm:"type:numeric(20,8)" json:"exchangeRate"`
	NetworkFee       decimal.Decimal `gorm:"type:numeric(20,6)" json:"networkFee"`
	ChainID          int64           `gorm:"not null" json:"chainId"`
	WalletAddress    *string         `gorm:"index" json:"walletAddress"`
	TxnHash          *string         `gorm:"uniqueIndex" json:"txnHash"`
	IsSuccess        bool            `gorm:"default:false" json:"isSuccess"`
	PayoutTriggered  bool            `gorm:"default:false" json:"payoutTriggered"`
	PayoutTransferID *string         `json:"payoutTransferId"`
	PayoutStatus     *string         `gorm:"index" json:"payoutStatus"`
	Step             string          `json:"step"`
	FailureReason    string          `json:"failureReason,omitempty"`
	Metadata         JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	ScannedAt        time.Time       `json:"scannedAt"`
	PaidAt           *time.Time      `json:"paidAt"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// BeforeCreate assigns the server-side id.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsPartialFailure reports a settled payment whose payout failed.
func (t *Transaction) IsPartialFailure() bool {
	return t.IsSuccess && t.PayoutTriggered && t.PayoutStatus != nil && *t.PayoutStatus == PayoutStatusFailed
}

// TransactionUpdate carries the fields a step may change. Nil means unchanged.
type TransactionUpdate struct {
	WalletAddress    *string    `json:"walletAddress,omitempty" validate:"omitempty,eth_addr"`
	TxnHash          *string    `json:"txnHash,omitempty"`
	IsSuccess        *bool      `json:"isSuccess,omitempty"`
	PayoutTriggered  *bool      `json:"payoutTriggered,omitempty"`
	PayoutTransferID *string    `json:"payoutTransferId,omitempty"`
	PayoutStatus     *string    `json:"payoutStatus,omitempty" validate:"omitempty,oneof=pending success failed"`
	Step             *string    `json:"step,omitempty"`
	FailureReason    *string    `json:"failureReason,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
}

// Apply copies the set fields onto t.
func (u TransactionUpdate) Apply(t *Transaction) {
	if u.WalletAddress != nil {
		t.WalletAddress = u.WalletAddress
	}
	if u.TxnHash != nil {
		t.TxnHash = u.TxnHash
	}
	if u.IsSuccess != nil {
		t.IsSuccess = *u.IsSuccess
	}
	if u.PayoutTriggered != nil {
		t.PayoutTriggered = *u.PayoutTriggered
	}
	if u.PayoutTransferID != nil {
		t.PayoutTransferID = u.PayoutTransferID
	}
	if u.PayoutStatus != nil {
		t.PayoutStatus = u.PayoutStatus
	}
	if u.Step != nil {
		t.Step = *u.Step
	}
	if u.FailureReason != nil {
		t.FailureReason = *u.FailureReason
	}
	if u.PaidAt != nil {
		t.PaidAt = u.PaidAt
	}
}

// Columns returns the gorm column map for the set fields.
func (u TransactionUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.WalletAddress != nil {
		cols["wallet_address"] = *u.WalletAddress
	}
	if u.TxnHash != nil {
		cols["txn_hash"] = *u.TxnHash
	}
	if u.IsSuccess != nil {
		cols["is_success"] = *u.IsSuccess
	}
	if u.PayoutTriggered != nil {
		cols["payout_triggered"] = *u.PayoutTriggered
	}
	if u.PayoutTransferID != nil {
		cols["payout_transfer_id"] = *u.PayoutTransferID
	}
	if u.PayoutStatus != nil {
		cols["payout_status"] = *u.PayoutStatus
	}
	if u.Step != nil {
		cols["step"] = *u.Step
	}
	if u.FailureReason != nil {
		cols["failure_reason"] = *u.FailureReason
	}
	if u.PaidAt != nil {
		cols["paid_at"] = *u.PaidAt
	}
	return cols
}
