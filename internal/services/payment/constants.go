package payment

import "time"

// Step names the stage an attempt reached. It is stored on the record.
type Step string

const (
	StepScanned             Step = "scanned"
	StepAmountChosen        Step = "amount_chosen"
	StepConverted           Step = "converted"
	StepRecorded            Step = "recorded"
	StepBalanceChecked      Step = "balance_checked"
	StepAuthorized          Step = "authorized"
	StepSettlementConfirmed Step = "settlement_confirmed"
	StepSettlementFailed    Step = "settlement_failed"
	StepPayoutInitiated     Step = "payout_initiated"
	StepPayoutConfirmed     Step = "payout_confirmed"
	StepPayoutFailed        Step = "payout_failed"
	StepCompleted           Step = "completed"
	StepFailed              Step = "failed"
	StepCancelled           Step = "cancelled"
)

// DefaultGuardTTL bounds how long a submission claim outlives its attempt.
const DefaultGuardTTL = 10 * time.Minute
