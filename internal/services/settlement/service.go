// Package settlement is the client for the relay that broadcasts gasless
// token transfers. Preparing is separate from executing so the payer signs
// locally in between.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"scanpay/internal/utils/httpclient"
)

var ErrIncompletePrepare = errors.New("relay returned an incomplete prepare response")

type Service interface {
	Prepare(ctx context.Context, req PrepareRequest) (*PrepareResponse, error)
	Execute(ctx context.Context, req ExecuteRequest) (*Receipt, error)
}

type HTTPClient struct {
	client *httpclient.Client
}

func NewHTTPClient(client *httpclient.Client) *HTTPClient {
	return &HTTPClient{client: client}
}

func (c *HTTPClient) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResponse, error) {
	var resp PrepareResponse
	if err := c.client.Post(ctx, "/prepare", req, &resp); err != nil {
		return nil, err
	}
	if resp.Nonce == "" || resp.ValidBefore == "" || resp.TypedData.Message.Nonce == "" {
		return nil, ErrIncompletePrepare
	}
	return &resp, nil
}

// Execute returns the receipt even when Success is false; a transport
// failure is the only error.
func (c *HTTPClient) Execute(ctx context.Context, req ExecuteRequest) (*Receipt, error) {
	var receipt Receipt
	if err := c.client.Post(ctx, "/execute", req, &receipt); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return &receipt, nil
}
