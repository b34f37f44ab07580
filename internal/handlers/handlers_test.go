package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/logger"
	"scanpay/internal/metrics"
	"scanpay/internal/models"
	"scanpay/internal/services/payout"
	"scanpay/internal/services/qr"
	"scanpay/internal/services/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, id string, u models.TransactionUpdate) error {
	return m.Called(ctx, id, u).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepository) ListByWallet(ctx context.Context, wallet string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, wallet, limit)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListPartialFailures(ctx context.Context, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Transaction), args.Error(1)
}

type MockBeneficiaryRepository struct {
	mock.Mock
}

func (m *MockBeneficiaryRepository) GetByVPA(ctx context.Context, vpa string) (*models.Beneficiary, error) {
	args := m.Called(ctx, vpa)
	if b := args.Get(0); b != nil {
		return b.(*models.Beneficiary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBeneficiaryRepository) Upsert(ctx context.Context, b *models.Beneficiary) error {
	return m.Called(ctx, b).Error(0)
}

type MockPayout struct {
	mock.Mock
}

func (m *MockPayout) Initiate(ctx context.Context, req payout.TransferRequest) (*payout.Receipt, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *MockPayout) RegisterBeneficiary(ctx context.Context, req payout.BeneficiaryRequest) (*payout.BeneficiaryResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*payout.BeneficiaryResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingNotifier struct {
	sent []*models.Transaction
}

func (n *recordingNotifier) NotifyPaymentStatus(ctx context.Context, tx *models.Transaction) error {
	n.sent = append(n.sent, tx)
	return nil
}

type invalidations []string

func (i *invalidations) Invalidate(ctx context.Context, vpa string) error {
	*i = append(*i, vpa)
	return nil
}

type fakeReconciler struct {
	out reconcile.Output
	err error
}

func (f *fakeReconciler) Pending(ctx context.Context, limit int) ([]models.Transaction, error) {
	return []models.Transaction{{ID: "t1"}}, f.err
}

func (f *fakeReconciler) Run(ctx context.Context, cmd reconcile.Command) (reconcile.Output, error) {
	return f.out, f.err
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]any{}
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestQRHandler_Interpret(t *testing.T) {
	app := fiber.New()
	h := NewQRHandler(qr.NewService(logger.NoopLogger{}, metrics.NoopRecorder{}))
	app.Post("/interpret", h.Interpret)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"valid dynamic merchant", map[string]string{"qrData": "upi://pay?pa=shop@upi&pn=Shop&mc=5411&am=10.00&cu=INR"}, fiber.StatusOK},
		{"invalid payment uri", map[string]string{"qrData": "upi://pay?pa=shopupi"}, fiber.StatusUnprocessableEntity},
		{"foreign payload", map[string]string{"qrData": "https://example.com"}, fiber.StatusBadRequest},
		{"missing qrData", map[string]string{}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := do(t, app, http.MethodPost, "/interpret", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusOK {
				data := out["data"].(map[string]any)
				assert.Equal(t, string(qr.SubtypeDynamicMerchant), data["qrType"])
				assert.Equal(t, true, data["isValid"])
			}
			if tt.status == fiber.StatusUnprocessableEntity {
				data := out["data"].(map[string]any)
				assert.Equal(t, false, data["isValid"])
				assert.NotEmpty(t, data["errors"])
			}
		})
	}
}

func TestQRHandler_Render(t *testing.T) {
	app := fiber.New()
	app.Post("/render", NewQRHandler(qr.NewService(logger.NoopLogger{}, metrics.NoopRecorder{})).Render)

	resp, _ := do(t, app, http.MethodPost, "/render", map[string]any{
		"record": map[string]string{"pa": "shop@upi", "pn": "Shop"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	png, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	resp, _ = do(t, app, http.MethodPost, "/render", map[string]any{"size": 128})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func newTransactionApp(repo *MockTransactionRepository, n *recordingNotifier) *fiber.App {
	app := fiber.New()
	h := NewTransactionHandler(repo, n, logger.NoopLogger{})
	app.Post("/transactions", h.Create)
	app.Get("/transactions", h.List)
	app.Get("/transactions/:id", h.Get)
	app.Patch("/transactions/:id", h.Update)
	return app
}

func TestTransactionHandler_Create(t *testing.T) {
	repo := new(MockTransactionRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.UpiID == "shop@upi" && !tx.IsSuccess && tx.TxnHash == nil
	})).Return("id-1", nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Transaction).ID = "id-1"
	})
	app := newTransactionApp(repo, &recordingNotifier{})

	resp, out := do(t, app, http.MethodPost, "/transactions", map[string]any{
		"transactionRef": "ref-1",
		"upiId":          "shop@upi",
		"qrType":         "static_merchant",
		"inrAmount":      "850",
		"totalUsdToPay":  "10.29",
		"chainId":        8453,
		"isSuccess":      true,
		"txnHash":        "0xdead",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "id-1", out["data"].(map[string]any)["id"])
	repo.AssertExpectations(t)

	resp, _ = do(t, app, http.MethodPost, "/transactions", map[string]any{
		"transactionRef": "ref-2",
		"upiId":          "shop@upi",
		"inrAmount":      "0",
		"totalUsdToPay":  "0",
		"chainId":        8453,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/transactions", map[string]any{"upiId": "shop@upi"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTransactionHandler_UpdateRejectsHashOverwrite(t *testing.T) {
	repo := new(MockTransactionRepository)
	repo.On("Update", mock.Anything, "id-1", mock.Anything).Return(appErrors.ErrHashImmutable)
	n := &recordingNotifier{}
	app := newTransactionApp(repo, n)

	resp, out := do(t, app, http.MethodPatch, "/transactions/id-1", map[string]any{"txnHash": "0xother"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, appErrors.ErrHashImmutable.Code, out["code"])
	assert.Empty(t, n.sent)
}

func TestTransactionHandler_UpdateNotifiesPayoutStatus(t *testing.T) {
	status := models.PayoutStatusSuccess
	stored := &models.Transaction{ID: "id-1", UpiID: "shop@upi", InrAmount: decimal.RequireFromString("850"), PayoutStatus: &status}

	repo := new(MockTransactionRepository)
	repo.On("Update", mock.Anything, "id-1", mock.MatchedBy(func(u models.TransactionUpdate) bool {
		return u.PayoutStatus != nil && *u.PayoutStatus == models.PayoutStatusSuccess
	})).Return(nil)
	repo.On("GetByID", mock.Anything, "id-1").Return(stored, nil)
	n := &recordingNotifier{}
	app := newTransactionApp(repo, n)

	resp, _ := do(t, app, http.MethodPatch, "/transactions/id-1", map[string]any{"payoutStatus": "success"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "id-1", n.sent[0].ID)

	resp, _ = do(t, app, http.MethodPatch, "/transactions/id-1", map[string]any{"payoutStatus": "done"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPatch, "/transactions/id-1", map[string]any{"walletAddress": "not-an-address"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTransactionHandler_GetAndList(t *testing.T) {
	repo := new(MockTransactionRepository)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, appErrors.ErrRecordNotFound)
	repo.On("ListByWallet", mock.Anything, "0xabc", 5).Return([]models.Transaction{{ID: "a"}, {ID: "b"}}, nil)
	app := newTransactionApp(repo, &recordingNotifier{})

	resp, _ := do(t, app, http.MethodGet, "/transactions/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out := do(t, app, http.MethodGet, "/transactions?wallet=0xabc&limit=5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 2)

	resp, _ = do(t, app, http.MethodGet, "/transactions", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBeneficiaryHandler(t *testing.T) {
	repo := new(MockBeneficiaryRepository)
	repo.On("GetByVPA", mock.Anything, "new@upi").Return(nil, appErrors.ErrRecordNotFound)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(b *models.Beneficiary) bool {
		return b.VPA == "new@upi" && b.BeneficiaryID == "BEN9"
	})).Return(nil)
	po := new(MockPayout)
	po.On("RegisterBeneficiary", mock.Anything, payout.BeneficiaryRequest{VPA: "new@upi", Name: "New"}).
		Return(&payout.BeneficiaryResponse{BeneficiaryID: "BEN9", Status: "ACTIVE"}, nil)
	inv := &invalidations{}

	app := fiber.New()
	h := NewBeneficiaryHandler(repo, inv, po, logger.NoopLogger{})
	app.Get("/beneficiaries/:vpa", h.Get)
	app.Put("/beneficiaries", h.Upsert)

	resp, _ := do(t, app, http.MethodGet, "/beneficiaries/new@upi", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/beneficiaries", map[string]string{"vpa": "new@upi", "name": "New"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"new@upi"}, []string(*inv))
	po.AssertExpectations(t)

	resp, _ = do(t, app, http.MethodPut, "/beneficiaries", map[string]string{"vpa": "no-realm"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReconciliationHandler(t *testing.T) {
	app := fiber.New()
	h := NewReconciliationHandler(&fakeReconciler{out: reconcile.Output{Scanned: 3, Recovered: 2, Failed: 1}}, logger.NoopLogger{})
	app.Get("/reconciliation", h.List)
	app.Post("/reconciliation/run", h.Run)

	resp, out := do(t, app, http.MethodPost, "/reconciliation/run", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), out["data"].(map[string]any)["recovered"])

	resp, out = do(t, app, http.MethodGet, "/reconciliation", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)

	failing := fiber.New()
	failing.Post("/run", NewReconciliationHandler(&fakeReconciler{err: errors.New("db down")}, logger.NoopLogger{}).Run)
	resp, _ = do(t, failing, http.MethodPost, "/run", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/health", NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}).Health)
	resp, out := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])

	down := fiber.New()
	down.Get("/health", NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("refused") },
	}).Health)
	resp, out = do(t, down, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "down", out["services"].(map[string]any)["redis"])
}
