package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"scanpay/internal/eip712"
	appErrors "scanpay/internal/errors"
	"scanpay/internal/logger"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
	"scanpay/internal/services/conversion"
	"scanpay/internal/services/payout"
	"scanpay/internal/services/settlement"
	"scanpay/internal/services/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Dependencies are the collaborators of the orchestrator. Every field is required.
type Dependencies struct {
	Conversion    conversion.Service
	Balances      wallet.BalanceChecker
	Signer        wallet.Signer
	Settlement    settlement.Service
	Payout        payout.Service
	Store         TransactionStore
	Beneficiaries BeneficiaryResolver
	Guard         SubmissionGuard
	Chains        map[int64]wallet.Chain
	Log           logger.Logger
	Metrics       metrics.Recorder
}

type orchestrator struct {
	Dependencies
	cfg     Config
	machine Machine
	now     func() time.Time
}

// NewService creates the payment orchestrator.
func NewService(cfg Config, deps Dependencies) Service {
	switch {
	case deps.Conversion == nil:
		panic("conversion service is required")
	case deps.Balances == nil:
		panic("balance checker is required")
	case deps.Signer == nil:
		panic("signer is required")
	case deps.Settlement == nil:
		panic("settlement service is required")
	case deps.Payout == nil:
		panic("payout service is required")
	case deps.Store == nil:
		panic("transaction store is required")
	case deps.Beneficiaries == nil:
		panic("beneficiary resolver is required")
	case deps.Guard == nil:
		panic("submission guard is required")
	case deps.Log == nil:
		panic("logger is required")
	case deps.Metrics == nil:
		panic("metrics recorder is required")
	}
	if !common.IsHexAddress(cfg.Treasury) {
		panic("treasury address is required")
	}
	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = DefaultGuardTTL
	}
	if deps.Chains == nil {
		deps.Chains = wallet.KnownChains
	}

	return &orchestrator{
		Dependencies: deps,
		cfg:          cfg,
		machine:      Machine{MaxAmount: cfg.MaxAmount},
		now:          time.Now,
	}
}

func (o *orchestrator) Run(ctx context.Context, scan Scan, userAmount string, chainID int64) (*Outcome, error) {
	attempt, err := o.Prepare(ctx, scan, userAmount, chainID)
	if err != nil {
		return nil, err
	}
	return attempt.Confirm(ctx)
}

func (o *orchestrator) Prepare(ctx context.Context, scan Scan, userAmount string, chainID int64) (*Attempt, error) {
	if !scan.Result.IsValid {
		return nil, &StepError{Step: StepScanned, Err: appErrors.ErrInvalidQR.WithMessage(strings.Join(scan.Result.Errors, "; "))}
	}
	if _, ok := o.Chains[chainID]; !ok {
		return nil, &StepError{Step: StepScanned, Err: fmt.Errorf("%w: %d", wallet.ErrUnsupportedChain, chainID)}
	}

	scannedAt := scan.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = o.now()
	}
	a := &Attempt{
		o: o,
		state: Scanned{Draft: Draft{
			Ref:       uuid.NewString(),
			Record:    scan.Result.Data,
			QRType:    scan.Result.QRType,
			ChainID:   chainID,
			ScannedAt: scannedAt,
		}},
	}

	if err := a.apply(AmountEntered{UserAmount: userAmount}); err != nil {
		return nil, err
	}
	if f, ok := a.state.(Failed); ok {
		o.record("payment_amount", f.At, chainID)
		return nil, f.AsError()
	}

	start := time.Now()
	d := a.state.Data()
	quote, err := o.Conversion.Quote(ctx, d.Amount, chainID)
	o.Metrics.ObserveLatency("payment.quote", time.Since(start), map[string]string{metrics.LabelResult: result(err)})
	if err != nil {
		_ = a.apply(Failure{Err: appErrors.ErrQuoteFailed.Wrap(err)})
	} else {
		_ = a.apply(QuoteReceived{Quote: *quote})
	}
	if f, ok := a.state.(Failed); ok {
		o.Log.Warn("quote failed", map[string]any{"ref": d.Ref, "amount": d.Amount.String(), "error": f.Err})
		o.record("payment_quote", f.At, chainID)
		return nil, f.AsError()
	}

	return a, nil
}

// Attempt is one prepared payment. Confirm runs it at most once.
type Attempt struct {
	o *orchestrator

	mu      sync.Mutex
	state   State
	started bool
	audited bool
}

// State returns the current state.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Quote returns the quote the payer is asked to approve.
func (a *Attempt) Quote() conversion.Quote {
	return a.State().Data().Quote
}

// Cancel discards a draft that was not confirmed. Nothing is persisted.
func (a *Attempt) Cancel() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return appErrors.ErrAlreadySubmitted
	}
	next, err := a.o.machine.Transition(a.state, Cancel{})
	if err != nil {
		return err
	}
	a.state = next
	a.o.record("payment_cancelled", StepCancelled, next.Data().ChainID)
	return nil
}

func (a *Attempt) apply(e Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.o.machine.Transition(a.state, e)
	if err != nil {
		return err
	}
	a.state = next
	return nil
}

func (a *Attempt) data() Draft {
	return a.State().Data()
}

// Confirm persists, checks the balance, signs, settles and pays out. The
// returned error is a *StepError for any halt, including a payout failure
// after settlement.
func (a *Attempt) Confirm(ctx context.Context) (*Outcome, error) {
	a.mu.Lock()
	switch {
	case a.started || a.state.Data().TxHash != "":
		a.mu.Unlock()
		return nil, appErrors.ErrAlreadySubmitted
	case IsTerminal(a.state):
		a.mu.Unlock()
		return nil, ErrCancelled
	}
	if _, ok := a.state.(Converted); !ok {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, a.state.Step())
	}
	a.started = true
	a.audited = true
	a.mu.Unlock()

	o := a.o
	d := a.data()
	if err := o.Guard.Acquire(ctx, d.Ref, o.cfg.GuardTTL); err != nil {
		return nil, err
	}
	submitted := false
	defer func() {
		if !submitted {
			if err := o.Guard.Release(context.WithoutCancel(ctx), d.Ref); err != nil {
				o.Log.Warn("failed to release submission guard", map[string]any{"ref": d.Ref, "error": err})
			}
		}
	}()

	start := time.Now()
	defer func() {
		o.Metrics.ObserveLatency("payment.confirm", time.Since(start), map[string]string{metrics.LabelResult: string(a.State().Step())})
	}()

	a.create(ctx)

	if !a.checkBalance(ctx) {
		return a.finish(ctx)
	}
	if !a.authorize(ctx) {
		return a.finish(ctx)
	}

	submitted = true
	if !a.settle(ctx) {
		return a.finish(ctx)
	}

	a.payout(ctx)
	return a.finish(ctx)
}

func (a *Attempt) create(ctx context.Context) {
	o := a.o
	d := a.data()
	tx := &models.Transaction{
		TransactionRef: d.Ref,
		UpiID:          d.Record.PayeeAddress,
		MerchantName:   d.Record.PayeeName,
		QRType:         string(d.QRType),
		InrAmount:      d.Amount,
		TotalUsdToPay:  d.Quote.TotalUSDCAmount,
		ExchangeRate:   d.Quote.ExchangeRate,
		NetworkFee:     d.Quote.NetworkFee,
		ChainID:        d.ChainID,
		IsSuccess:      false,
		Step:           string(StepRecorded),
		Metadata:       recordMetadata(d),
		ScannedAt:      d.ScannedAt,
	}

	id, err := o.Store.Create(ctx, tx)
	if err != nil {
		a.unaudited("create", err)
		id = ""
	}
	_ = a.apply(RecordCreated{ID: id})
	o.Log.Info("payment record created", map[string]any{"ref": d.Ref, "recordId": id})
}

func (a *Attempt) checkBalance(ctx context.Context) bool {
	o := a.o
	d := a.data()
	balance, err := o.Balances.Balance(ctx, o.Signer.Address(), d.ChainID)
	if err != nil {
		_ = a.apply(Failure{Err: fmt.Errorf("read balance: %w", err)})
		return false
	}
	_ = a.apply(BalanceReported{Balance: balance})
	_, ok := a.State().(BalanceChecked)
	return ok
}

func (a *Attempt) authorize(ctx context.Context) bool {
	o := a.o
	d := a.data()
	chain := o.Chains[d.ChainID]
	payer := o.Signer.Address()
	value := wallet.ToBaseUnits(d.Quote.TotalUSDCAmount, chain.Decimals)

	prep, err := o.Settlement.Prepare(ctx, settlement.PrepareRequest{
		Payer:     payer.Hex(),
		Recipient: o.cfg.Treasury,
		Token:     chain.TokenAddress,
		Value:     value.String(),
		ChainID:   d.ChainID,
	})
	if err != nil {
		_ = a.apply(Failure{Err: appErrors.ErrAuthorizationFailed.Wrap(fmt.Errorf("prepare: %w", err))})
		return false
	}

	td := prep.TypedData
	if err := checkSkeleton(td, payer, o.cfg.Treasury, chain, d.ChainID, value.String()); err != nil {
		_ = a.apply(Failure{Err: appErrors.ErrAuthorizationFailed.Wrap(err)})
		return false
	}

	sig, err := o.Signer.SignAuthorization(ctx, td)
	if err != nil {
		_ = a.apply(Failure{Err: appErrors.ErrAuthorizationFailed.Wrap(err)})
		return false
	}
	_ = a.apply(Signed{Payer: payer.Hex(), Authorization: td.Message, Signature: sig})
	_, ok := a.State().(Authorized)
	return ok
}

// checkSkeleton refuses typed data that would authorize anything other than
// the quoted total to the treasury on this chain's token.
func checkSkeleton(td eip712.TypedData, payer common.Address, treasury string, chain wallet.Chain, chainID int64, value string) error {
	msg := td.Message
	switch {
	case !strings.EqualFold(msg.From, payer.Hex()):
		return fmt.Errorf("%w: from %s", ErrSkeletonMismatch, msg.From)
	case !strings.EqualFold(msg.To, treasury):
		return fmt.Errorf("%w: to %s", ErrSkeletonMismatch, msg.To)
	case msg.Value != value:
		return fmt.Errorf("%w: value %s, want %s", ErrSkeletonMismatch, msg.Value, value)
	case td.Domain.ChainID != chainID:
		return fmt.Errorf("%w: chain %d", ErrSkeletonMismatch, td.Domain.ChainID)
	case !strings.EqualFold(td.Domain.VerifyingContract, chain.TokenAddress):
		return fmt.Errorf("%w: contract %s", ErrSkeletonMismatch, td.Domain.VerifyingContract)
	}
	return nil
}

func (a *Attempt) settle(ctx context.Context) bool {
	o := a.o
	d := a.data()
	chain := o.Chains[d.ChainID]

	start := time.Now()
	receipt, err := o.Settlement.Execute(ctx, settlement.ExecuteRequest{
		Authorization: d.Authorization,
		Signature:     eip712.SignatureHex(d.Signature),
		Token:         chain.TokenAddress,
		ChainID:       d.ChainID,
	})
	o.Metrics.ObserveLatency("payment.settle", time.Since(start), map[string]string{metrics.LabelResult: result(err)})

	ev := SettlementReported{}
	if err != nil {
		ev.Reason = err.Error()
	} else {
		ev.Success = receipt.Success
		ev.TxHash = receipt.TransactionHash
		ev.Reason = receipt.Error
	}
	_ = a.apply(ev)

	st := a.State()
	sd := st.Data()
	_, ok := st.(SettlementConfirmed)

	update := models.TransactionUpdate{
		WalletAddress: &sd.Payer,
		IsSuccess:     &ok,
	}
	if sd.TxHash != "" {
		update.TxnHash = &sd.TxHash
	}
	step := string(st.Step())
	update.Step = &step
	if !ok {
		update.FailureReason = &sd.Reason
	}
	a.update(ctx, update)

	o.Log.Info("settlement reported", map[string]any{"ref": sd.Ref, "success": ok, "txHash": sd.TxHash})
	return ok
}

func (a *Attempt) payout(ctx context.Context) {
	o := a.o
	d := a.data()

	req := payout.TransferRequest{
		TransferID: TransferID(d.Ref),
		Amount:     d.Amount,
		Remarks:    payout.RemarksFor(d.Record.TransactionRef),
	}
	beneficiaryID, err := o.Beneficiaries.Resolve(ctx, d.Record.PayeeAddress)
	if err != nil {
		o.Log.Warn("beneficiary lookup failed, paying the payee address", map[string]any{"ref": d.Ref, "error": err})
	}
	if beneficiaryID != "" {
		req.BeneficiaryID = beneficiaryID
	} else {
		req.VPA = d.Record.PayeeAddress
	}

	_ = a.apply(PayoutStarted{TransferID: req.TransferID})

	ev := PayoutReported{Status: models.PayoutStatusFailed}
	receipt, err := o.Payout.Initiate(ctx, req)
	if err != nil {
		ev.Reason = err.Error()
	} else {
		ev.Status = payout.StatusOf(receipt)
		ev.Success = ev.Status != models.PayoutStatusFailed
		ev.Reason = receipt.Message
	}
	_ = a.apply(ev)

	triggered := true
	update := models.TransactionUpdate{
		PayoutTriggered:  &triggered,
		PayoutTransferID: &req.TransferID,
		PayoutStatus:     &ev.Status,
	}
	if ev.Success {
		paidAt := o.now()
		update.PaidAt = &paidAt
	}
	a.update(ctx, update)

	if !ev.Success {
		o.Log.Error("payout failed after settlement", map[string]any{
			"ref":        d.Ref,
			"recordId":   d.RecordID,
			"transferId": req.TransferID,
			"txHash":     d.TxHash,
			"reason":     ev.Reason,
		})
	}
}

// finish closes the attempt and writes the final step.
func (a *Attempt) finish(ctx context.Context) (*Outcome, error) {
	switch a.State().(type) {
	case SettlementFailed, PayoutConfirmed, PayoutFailed:
		_ = a.apply(Finish{})
	}

	st := a.State()
	d := st.Data()
	out := &Outcome{State: st, RecordID: d.RecordID}

	step := string(st.Step())
	update := models.TransactionUpdate{Step: &step}

	var err error
	switch s := st.(type) {
	case Completed:
		out.Success = true
	case Failed:
		at := string(s.At)
		update.Step = &at
		update.FailureReason = &d.Reason
		out.PartialFailure = s.At == StepPayoutFailed
		err = s.AsError()
	}
	a.update(ctx, update)

	a.mu.Lock()
	out.Audited = a.audited && d.RecordID != ""
	a.mu.Unlock()

	a.o.record("payment_attempt", stepLabel(st), d.ChainID)
	if err != nil {
		a.o.Log.Warn("payment halted", map[string]any{"ref": d.Ref, "recordId": d.RecordID, "error": err})
	}
	return out, err
}

// update writes to the store. Failures are logged and leave the attempt unaudited.
func (a *Attempt) update(ctx context.Context, u models.TransactionUpdate) {
	d := a.data()
	if d.RecordID == "" {
		return
	}
	if err := a.o.Store.Update(ctx, d.RecordID, u); err != nil {
		a.unaudited("update", err)
	}
}

func (a *Attempt) unaudited(op string, err error) {
	a.mu.Lock()
	a.audited = false
	ref := a.state.Data().Ref
	a.mu.Unlock()
	a.o.Log.Error("payment record write failed", map[string]any{"op": op, "ref": ref, "error": err})
	a.o.Metrics.IncCounter("payment_store_error", map[string]string{metrics.LabelResult: op})
}

// TransferID derives the payout transfer id from the attempt ref. The
// reconciler reuses it so a retried payout stays idempotent on the rail.
func TransferID(ref string) string {
	return "SP" + strings.ReplaceAll(ref, "-", "")
}

func recordMetadata(d Draft) models.JSON {
	meta := models.JSON{
		"networkName": d.Quote.NetworkName,
		"usdcAmount":  d.Quote.USDCAmount.String(),
		"quotedAt":    d.Quote.LastUpdated,
	}
	if d.Record.TransactionRef != "" {
		meta["merchantRef"] = d.Record.TransactionRef
	}
	if d.Record.MerchantCategoryCode != "" {
		meta["mcc"] = d.Record.MerchantCategoryCode
	}
	return meta
}

func (o *orchestrator) record(event string, step Step, chainID int64) {
	o.Metrics.IncCounter(event, map[string]string{
		metrics.LabelResult:  string(step),
		metrics.LabelChainID: fmt.Sprint(chainID),
	})
}

func stepLabel(s State) Step {
	if f, ok := s.(Failed); ok {
		return f.At
	}
	return s.Step()
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}
