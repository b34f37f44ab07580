package payment

import (
	"time"

	"scanpay/internal/services/qr"
)

// Scan is an interpreted payment code handed over by the scanner.
type Scan struct {
	Raw       string
	Result    qr.Result
	ScannedAt time.Time
}

// Outcome is the terminal result of a confirmed attempt.
type Outcome struct {
	State    State
	RecordID string
	// Success is true only when settlement and payout both succeeded.
	Success bool
	// PartialFailure marks a settled payment whose payout failed.
	PartialFailure bool
	// Audited is false when a store write failed along the way.
	Audited bool
}
