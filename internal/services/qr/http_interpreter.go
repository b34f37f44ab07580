package qr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"scanpay/internal/utils/httpclient"
)

// HTTPInterpreter calls POST /api/qr/interpret on the API server.
type HTTPInterpreter struct {
	client *httpclient.Client
}

func NewHTTPInterpreter(client *httpclient.Client) *HTTPInterpreter {
	return &HTTPInterpreter{client: client}
}

type interpretRequest struct {
	QRData string `json:"qrData"`
}

type interpretReply struct {
	Message string `json:"message"`
	Data    Result `json:"data"`
}

func (h *HTTPInterpreter) Interpret(ctx context.Context, raw string) (*Result, error) {
	var reply interpretReply
	err := h.client.Post(ctx, "/api/qr/interpret", interpretRequest{QRData: raw}, &reply)
	if err == nil {
		return &reply.Data, nil
	}

	var se *httpclient.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrNotPaymentURI, se.Body)
		case http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, se.Body)
		}
	}
	return nil, fmt.Errorf("interpret QR: %w", err)
}
