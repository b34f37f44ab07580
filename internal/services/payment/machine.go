package payment

import (
	"fmt"
	"time"

	"scanpay/internal/eip712"
	appErrors "scanpay/internal/errors"
	"scanpay/internal/services/conversion"
	"scanpay/internal/services/qr"

	"github.com/shopspring/decimal"
)

// Draft is what an attempt knows so far. Each state carries its own copy.
type Draft struct {
	Ref       string
	Record    qr.Record
	QRType    qr.Subtype
	ChainID   int64
	ScannedAt time.Time

	Amount   decimal.Decimal
	Quote    conversion.Quote
	RecordID string
	Balance  decimal.Decimal

	Payer         string
	Authorization eip712.Authorization
	Signature     []byte

	TxHash       string
	TransferID   string
	PayoutStatus string
	Reason       string
}

// State is one of the payment states below.
type State interface {
	Step() Step
	Data() Draft
}

type (
	Scanned             struct{ Draft }
	AmountChosen        struct{ Draft }
	Converted           struct{ Draft }
	Recorded            struct{ Draft }
	BalanceChecked      struct{ Draft }
	Authorized          struct{ Draft }
	SettlementConfirmed struct{ Draft }
	SettlementFailed    struct{ Draft }
	PayoutInitiated     struct{ Draft }
	PayoutConfirmed     struct{ Draft }
	PayoutFailed        struct{ Draft }
	Completed           struct{ Draft }
	Cancelled           struct {
		Draft
		At Step
	}
	// Failed keeps the step that halted and the coded cause.
	Failed struct {
		Draft
		At  Step
		Err error
	}
)

func (s Scanned) Step() Step             { return StepScanned }
func (s AmountChosen) Step() Step        { return StepAmountChosen }
func (s Converted) Step() Step           { return StepConverted }
func (s Recorded) Step() Step            { return StepRecorded }
func (s BalanceChecked) Step() Step      { return StepBalanceChecked }
func (s Authorized) Step() Step          { return StepAuthorized }
func (s SettlementConfirmed) Step() Step { return StepSettlementConfirmed }
func (s SettlementFailed) Step() Step    { return StepSettlementFailed }
func (s PayoutInitiated) Step() Step     { return StepPayoutInitiated }
func (s PayoutConfirmed) Step() Step     { return StepPayoutConfirmed }
func (s PayoutFailed) Step() Step        { return StepPayoutFailed }
func (s Completed) Step() Step           { return StepCompleted }
func (s Cancelled) Step() Step           { return StepCancelled }
func (s Failed) Step() Step              { return StepFailed }

func (s Scanned) Data() Draft             { return s.Draft }
func (s AmountChosen) Data() Draft        { return s.Draft }
func (s Converted) Data() Draft           { return s.Draft }
func (s Recorded) Data() Draft            { return s.Draft }
func (s BalanceChecked) Data() Draft      { return s.Draft }
func (s Authorized) Data() Draft          { return s.Draft }
func (s SettlementConfirmed) Data() Draft { return s.Draft }
func (s SettlementFailed) Data() Draft    { return s.Draft }
func (s PayoutInitiated) Data() Draft     { return s.Draft }
func (s PayoutConfirmed) Data() Draft     { return s.Draft }
func (s PayoutFailed) Data() Draft        { return s.Draft }
func (s Completed) Data() Draft           { return s.Draft }
func (s Cancelled) Data() Draft           { return s.Draft }
func (s Failed) Data() Draft              { return s.Draft }

// AsError converts a Failed state into the error returned to callers.
func (s Failed) AsError() error {
	return &StepError{Step: s.At, Err: s.Err}
}

// Event drives a transition.
type Event interface {
	event()
}

type (
	// AmountEntered carries the payer's amount. It is ignored when the
	// scanned record fixes one.
	AmountEntered struct{ UserAmount string }
	QuoteReceived struct{ Quote conversion.Quote }
	// RecordCreated carries the store id, or "" when the create failed.
	RecordCreated   struct{ ID string }
	BalanceReported struct{ Balance decimal.Decimal }
	Signed          struct {
		Payer         string
		Authorization eip712.Authorization
		Signature     []byte
	}
	SettlementReported struct {
		Success bool
		TxHash  string
		Reason  string
	}
	PayoutStarted  struct{ TransferID string }
	PayoutReported struct {
		Success bool
		Status  string
		Reason  string
	}
	// Finish closes a settlement or payout branch.
	Finish struct{}
	// Failure halts at the step being attempted.
	Failure struct{ Err error }
	Cancel  struct{}
)

func (AmountEntered) event()      {}
func (QuoteReceived) event()      {}
func (RecordCreated) event()      {}
func (BalanceReported) event()    {}
func (Signed) event()             {}
func (SettlementReported) event() {}
func (PayoutStarted) event()      {}
func (PayoutReported) event()     {}
func (Finish) event()             {}
func (Failure) event()            {}
func (Cancel) event()             {}

// Machine is the pure transition function. It performs no I/O.
type Machine struct {
	MaxAmount decimal.Decimal
}

// Transition returns the next state. Domain failures come back as a Failed
// state; ErrInvalidTransition means the pair is not allowed.
func (m Machine) Transition(s State, e Event) (State, error) {
	if f, ok := e.(Failure); ok {
		next, attempting := nextStep(s)
		if !attempting {
			return s, invalid(s, e)
		}
		d := s.Data()
		d.Reason = errMessage(f.Err)
		return Failed{Draft: d, At: next, Err: f.Err}, nil
	}

	switch st := s.(type) {
	case Scanned:
		switch ev := e.(type) {
		case AmountEntered:
			return m.chooseAmount(st, ev)
		case Cancel:
			return Cancelled{Draft: st.Draft, At: StepScanned}, nil
		}

	case AmountChosen:
		switch ev := e.(type) {
		case QuoteReceived:
			if !ev.Quote.Matches(st.Amount, st.ChainID) || !ev.Quote.TotalUSDCAmount.IsPositive() {
				return failed(st.Draft, StepConverted, appErrors.ErrQuoteFailed.WithMessage("quote does not match the requested amount")), nil
			}
			d := st.Draft
			d.Quote = ev.Quote
			return Converted{Draft: d}, nil
		case Cancel:
			return Cancelled{Draft: st.Draft, At: StepAmountChosen}, nil
		}

	case Converted:
		switch ev := e.(type) {
		case RecordCreated:
			d := st.Draft
			d.RecordID = ev.ID
			return Recorded{Draft: d}, nil
		case Cancel:
			return Cancelled{Draft: st.Draft, At: StepConverted}, nil
		}

	case Recorded:
		if ev, ok := e.(BalanceReported); ok {
			d := st.Draft
			d.Balance = ev.Balance
			if ev.Balance.LessThan(d.Quote.TotalUSDCAmount) {
				return failed(d, StepBalanceChecked, appErrors.ErrInsufficientBalance), nil
			}
			return BalanceChecked{Draft: d}, nil
		}

	case BalanceChecked:
		if ev, ok := e.(Signed); ok {
			if ev.Payer == "" || len(ev.Signature) != 65 {
				return failed(st.Draft, StepAuthorized, appErrors.ErrAuthorizationFailed.Wrap(eip712.ErrBadSignature)), nil
			}
			d := st.Draft
			d.Payer = ev.Payer
			d.Authorization = ev.Authorization
			d.Signature = ev.Signature
			return Authorized{Draft: d}, nil
		}

	case Authorized:
		if ev, ok := e.(SettlementReported); ok {
			d := st.Draft
			d.TxHash = ev.TxHash
			switch {
			case ev.Success && ev.TxHash != "":
				return SettlementConfirmed{Draft: d}, nil
			case ev.Success:
				d.Reason = ErrMissingTxHash.Error()
			default:
				d.Reason = ev.Reason
			}
			return SettlementFailed{Draft: d}, nil
		}

	case SettlementFailed:
		if _, ok := e.(Finish); ok {
			return failed(st.Draft, StepSettlementFailed, appErrors.ErrSettlementFailed.WithMessage(reasonOr(st.Reason, appErrors.ErrSettlementFailed.Message))), nil
		}

	case SettlementConfirmed:
		if ev, ok := e.(PayoutStarted); ok {
			d := st.Draft
			d.TransferID = ev.TransferID
			return PayoutInitiated{Draft: d}, nil
		}

	case PayoutInitiated:
		if ev, ok := e.(PayoutReported); ok {
			d := st.Draft
			d.PayoutStatus = ev.Status
			if ev.Success {
				return PayoutConfirmed{Draft: d}, nil
			}
			d.Reason = ev.Reason
			return PayoutFailed{Draft: d}, nil
		}

	case PayoutConfirmed:
		if _, ok := e.(Finish); ok {
			return Completed{Draft: st.Draft}, nil
		}

	case PayoutFailed:
		if _, ok := e.(Finish); ok {
			return failed(st.Draft, StepPayoutFailed, appErrors.ErrPayoutFailed.WithMessage(reasonOr(st.Reason, appErrors.ErrPayoutFailed.Message))), nil
		}
	}

	return s, invalid(s, e)
}

func (m Machine) chooseAmount(st Scanned, ev AmountEntered) (State, error) {
	raw := ev.UserAmount
	if st.Record.Amount != "" {
		raw = st.Record.Amount
	}

	amount, err := qr.ParseAmount(raw)
	if err != nil {
		return failed(st.Draft, StepAmountChosen, appErrors.ErrInvalidAmount.Wrap(err)), nil
	}
	if m.MaxAmount.IsPositive() && amount.GreaterThan(m.MaxAmount) {
		return failed(st.Draft, StepAmountChosen, appErrors.ErrAmountExceedsLimit.WithMessage(
			fmt.Sprintf("amount %s exceeds the per-payment limit of %s", amount, m.MaxAmount))), nil
	}

	d := st.Draft
	d.Amount = amount
	return AmountChosen{Draft: d}, nil
}

// nextStep is the step a non-terminal state is working towards.
func nextStep(s State) (Step, bool) {
	switch s.(type) {
	case Scanned:
		return StepAmountChosen, true
	case AmountChosen:
		return StepConverted, true
	case Converted:
		return StepRecorded, true
	case Recorded:
		return StepBalanceChecked, true
	case BalanceChecked:
		return StepAuthorized, true
	case Authorized:
		return StepSettlementConfirmed, true
	case SettlementConfirmed:
		return StepPayoutInitiated, true
	case PayoutInitiated:
		return StepPayoutConfirmed, true
	}
	return "", false
}

// IsTerminal reports whether no further event is accepted.
func IsTerminal(s State) bool {
	switch s.(type) {
	case Completed, Failed, Cancelled:
		return true
	}
	return false
}

func failed(d Draft, at Step, err error) Failed {
	d.Reason = errMessage(err)
	return Failed{Draft: d, At: at, Err: err}
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %T in %s", ErrInvalidTransition, e, s.Step())
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
