package models

import "time"

// Beneficiary statuses
const (
	BeneficiaryStatusActive   = "active"
	BeneficiaryStatusInactive = "inactive"
)

// Beneficiary maps a payee address to the id the payout rail registered for it.
type Beneficiary struct {
	ID            uint      `gorm:"primarykey" json:"-"`
	VPA           string    `gorm:"uniqueIndex;not null" json:"vpa"`
	BeneficiaryID string    `gorm:"not null" json:"beneficiaryId"`
	Name          string    `json:"name"`
	Status        string    `gorm:"not null;default:'active'" json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
