package qr

import (
	"context"
	"fmt"
	"strings"

	"scanpay/internal/logger"
	"scanpay/internal/metrics"
)

type service struct {
	log     logger.Logger
	metrics metrics.Recorder
}

// NewService creates a new in-process interpreter.
func NewService(log logger.Logger, rec metrics.Recorder) Service {
	if log == nil {
		panic("logger is required")
	}
	if rec == nil {
		panic("metrics recorder is required")
	}
	return &service{log: log, metrics: rec}
}

func (s *service) Interpret(ctx context.Context, raw string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if Parse(raw) == nil {
		s.metrics.IncCounter("qr_interpreted", map[string]string{metrics.LabelResult: "foreign"})
		return nil, ErrNotPaymentURI
	}

	res := ParseAndValidate(raw)
	if !res.IsValid {
		s.metrics.IncCounter("qr_interpreted", map[string]string{metrics.LabelResult: "invalid"})
		s.log.Info("payment URI rejected", map[string]any{
			"qrType": res.QRType,
			"errors": res.Errors,
		})
		return &res, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(res.Errors, "; "))
	}

	s.metrics.IncCounter("qr_interpreted", map[string]string{metrics.LabelResult: string(res.QRType)})
	s.log.Debug("payment URI interpreted", map[string]any{
		"qrType": res.QRType,
		"payee":  res.Data.PayeeAddress,
	})
	return &res, nil
}
