package payment

import (
	"testing"

	"scanpay/internal/eip712"
	appErrors "scanpay/internal/errors"
	"scanpay/internal/services/conversion"
	"scanpay/internal/services/qr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMachine = Machine{MaxAmount: decimal.NewFromInt(25000)}

func scannedState(t *testing.T, uri string) Scanned {
	t.Helper()
	res := qr.ParseAndValidate(uri)
	require.True(t, res.IsValid, res.Errors)
	return Scanned{Draft: Draft{Ref: "ref-1", Record: res.Data, QRType: res.QRType, ChainID: 8453}}
}

func quoteFor(amount string) conversion.Quote {
	return conversion.Quote{
		FiatAmount:      decimal.RequireFromString(amount),
		ChainID:         8453,
		USDCAmount:      decimal.RequireFromString("10.20"),
		ExchangeRate:    decimal.RequireFromString("0.012"),
		NetworkFee:      decimal.RequireFromString("0.09"),
		TotalUSDCAmount: decimal.RequireFromString("10.29"),
		NetworkName:     "Base",
	}
}

func step(t *testing.T, s State, e Event) State {
	t.Helper()
	next, err := testMachine.Transition(s, e)
	require.NoError(t, err)
	return next
}

func TestMachine_AmountRules(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		user    string
		want    string
		wantErr error
	}{
		{"fixed amount wins", "upi://pay?pa=m@bank&am=850.00&cu=INR&mc=1234", "10", "850", nil},
		{"user amount", "upi://pay?pa=m@bank&pn=Shop", "120.50", "120.5", nil},
		{"at the ceiling", "upi://pay?pa=m@bank", "25000", "25000", nil},
		{"over the ceiling", "upi://pay?pa=m@bank", "25001", "", appErrors.ErrAmountExceedsLimit},
		{"not a number", "upi://pay?pa=m@bank", "12abc", "", appErrors.ErrInvalidAmount},
		{"zero", "upi://pay?pa=m@bank", "0", "", appErrors.ErrInvalidAmount},
		{"missing", "upi://pay?pa=m@bank", "", "", appErrors.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := step(t, scannedState(t, tt.uri), AmountEntered{UserAmount: tt.user})
			if tt.wantErr != nil {
				f, ok := next.(Failed)
				require.True(t, ok, "got %T", next)
				assert.Equal(t, StepAmountChosen, f.At)
				assert.ErrorIs(t, f.Err, tt.wantErr)
				assert.NotEmpty(t, f.Reason)
				return
			}
			chosen, ok := next.(AmountChosen)
			require.True(t, ok, "got %T", next)
			assert.Equal(t, tt.want, chosen.Amount.String())
		})
	}
}

func TestMachine_HappyPath(t *testing.T) {
	var s State = scannedState(t, "upi://pay?pa=merchant@bank&pn=Test%20Store&am=850.00&cu=INR&mc=1234&tr=TXN1")

	s = step(t, s, AmountEntered{})
	s = step(t, s, QuoteReceived{Quote: quoteFor("850")})
	require.IsType(t, Converted{}, s)
	s = step(t, s, RecordCreated{ID: "rec-1"})
	s = step(t, s, BalanceReported{Balance: decimal.RequireFromString("10.29")})
	require.IsType(t, BalanceChecked{}, s)
	s = step(t, s, Signed{Payer: "0xabc", Authorization: eip712.Authorization{Value: "10290000"}, Signature: make([]byte, 65)})
	s = step(t, s, SettlementReported{Success: true, TxHash: "0xhash"})
	require.IsType(t, SettlementConfirmed{}, s)
	s = step(t, s, PayoutStarted{TransferID: "SP1"})
	s = step(t, s, PayoutReported{Success: true, Status: "success"})
	s = step(t, s, Finish{})

	require.IsType(t, Completed{}, s)
	d := s.Data()
	assert.Equal(t, "rec-1", d.RecordID)
	assert.Equal(t, "0xhash", d.TxHash)
	assert.Equal(t, "SP1", d.TransferID)
	assert.True(t, IsTerminal(s))
}

func TestMachine_QuoteMustMatchAmount(t *testing.T) {
	s := step(t, scannedState(t, "upi://pay?pa=m@bank"), AmountEntered{UserAmount: "100"})
	s = step(t, s, QuoteReceived{Quote: quoteFor("850")})

	f, ok := s.(Failed)
	require.True(t, ok)
	assert.Equal(t, StepConverted, f.At)
	assert.ErrorIs(t, f.Err, appErrors.ErrQuoteFailed)
}

func TestMachine_InsufficientBalance(t *testing.T) {
	s := step(t, scannedState(t, "upi://pay?pa=m@bank"), AmountEntered{UserAmount: "850"})
	s = step(t, s, QuoteReceived{Quote: quoteFor("850")})
	s = step(t, s, RecordCreated{ID: "rec-1"})
	s = step(t, s, BalanceReported{Balance: decimal.RequireFromString("10.28")})

	f, ok := s.(Failed)
	require.True(t, ok)
	assert.Equal(t, StepBalanceChecked, f.At)
	assert.ErrorIs(t, f.Err, appErrors.ErrInsufficientBalance)
	assert.Equal(t, "rec-1", f.RecordID)
}

func TestMachine_SettlementOutcomes(t *testing.T) {
	authorized := Authorized{Draft: Draft{Ref: "r", Payer: "0xabc"}}

	s := step(t, authorized, SettlementReported{Success: true})
	sf, ok := s.(SettlementFailed)
	require.True(t, ok, "success without a hash is a failure")
	assert.Equal(t, ErrMissingTxHash.Error(), sf.Reason)

	s = step(t, authorized, SettlementReported{Success: false, TxHash: "0xreverted", Reason: "execution reverted"})
	require.IsType(t, SettlementFailed{}, s)
	s = step(t, s, Finish{})
	f := s.(Failed)
	assert.Equal(t, StepSettlementFailed, f.At)
	assert.ErrorIs(t, f.Err, appErrors.ErrSettlementFailed)
	assert.Equal(t, "0xreverted", f.TxHash)

	_, err := testMachine.Transition(sf, PayoutStarted{TransferID: "x"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_PayoutFailureKeepsSettlement(t *testing.T) {
	var s State = SettlementConfirmed{Draft: Draft{Ref: "r", TxHash: "0xhash"}}
	s = step(t, s, PayoutStarted{TransferID: "SP1"})
	s = step(t, s, PayoutReported{Success: false, Status: "failed", Reason: "beneficiary inactive"})
	require.IsType(t, PayoutFailed{}, s)
	s = step(t, s, Finish{})

	f, ok := s.(Failed)
	require.True(t, ok)
	assert.Equal(t, StepPayoutFailed, f.At)
	assert.ErrorIs(t, f.Err, appErrors.ErrPayoutFailed)
	assert.Equal(t, "0xhash", f.TxHash)
	assert.Equal(t, "failed", f.PayoutStatus)
	assert.Contains(t, f.Reason, "beneficiary inactive")
}

func TestMachine_Cancel(t *testing.T) {
	s := step(t, scannedState(t, "upi://pay?pa=m@bank"), AmountEntered{UserAmount: "10"})
	s = step(t, s, QuoteReceived{Quote: quoteFor("10")})
	c := step(t, s, Cancel{})
	assert.Equal(t, StepCancelled, c.Step())
	assert.True(t, IsTerminal(c))

	recorded := step(t, s, RecordCreated{ID: "rec"})
	_, err := testMachine.Transition(recorded, Cancel{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachine_FailureRecordsAttemptedStep(t *testing.T) {
	s := step(t, Recorded{Draft: Draft{RecordID: "rec"}}, Failure{Err: assert.AnError})
	f := s.(Failed)
	assert.Equal(t, StepBalanceChecked, f.At)
	assert.Equal(t, assert.AnError.Error(), f.Reason)

	_, err := testMachine.Transition(f, Failure{Err: assert.AnError})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = testMachine.Transition(Completed{}, Finish{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
