// Package store talks to the scanpay API server on behalf of the CLI. It
// implements the payment orchestrator's TransactionStore and
// BeneficiaryResolver over HTTP.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	appErrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/utils/httpclient"
)

type HTTPStore struct {
	client *httpclient.Client
}

// NewHTTPStore expects a client whose base URL is the API server and that
// sends a bearer token.
func NewHTTPStore(client *httpclient.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ReconcileReport mirrors the server's reconciliation summary.
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Recovered int `json:"recovered"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (s *HTTPStore) Create(ctx context.Context, tx *models.Transaction) (string, error) {
	var out envelope[models.Transaction]
	if err := s.client.Post(ctx, "/api/transactions", tx, &out); err != nil {
		return "", mapStatus(err)
	}
	if out.Data.ID == "" {
		return "", errors.New("create transaction: server returned no id")
	}
	return out.Data.ID, nil
}

func (s *HTTPStore) Update(ctx context.Context, id string, update models.TransactionUpdate) error {
	if err := s.client.Patch(ctx, "/api/transactions/"+url.PathEscape(id), update, nil); err != nil {
		return mapStatus(err)
	}
	return nil
}

func (s *HTTPStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var out envelope[models.Transaction]
	if err := s.client.Get(ctx, "/api/transactions/"+url.PathEscape(id), &out); err != nil {
		return nil, mapStatus(err)
	}
	return &out.Data, nil
}

// Resolve returns "" when the server has no beneficiary for vpa.
func (s *HTTPStore) Resolve(ctx context.Context, vpa string) (string, error) {
	var out envelope[models.Beneficiary]
	err := s.client.Get(ctx, "/api/beneficiaries/"+url.PathEscape(vpa), &out)
	if err != nil {
		err = mapStatus(err)
		if errors.Is(err, appErrors.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if out.Data.Status != models.BeneficiaryStatusActive {
		return "", nil
	}
	return out.Data.BeneficiaryID, nil
}

// Reconcile asks the server to retry failed payouts.
func (s *HTTPStore) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var out envelope[ReconcileReport]
	if err := s.client.Post(ctx, "/api/reconciliation/run", struct{}{}, &out); err != nil {
		return nil, mapStatus(err)
	}
	return &out.Data, nil
}

func mapStatus(err error) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.StatusCode {
	case http.StatusNotFound:
		return appErrors.ErrRecordNotFound.Wrap(err)
	case http.StatusConflict:
		return appErrors.ErrHashImmutable.Wrap(err)
	}
	return fmt.Errorf("transaction api: %w", err)
}
