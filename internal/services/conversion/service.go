// Package conversion fetches fiat-to-stablecoin quotes from the rate service.
package conversion

import (
	"context"
	"errors"
	"fmt"

	"scanpay/internal/utils/httpclient"

	"github.com/shopspring/decimal"
)

// FiatCurrency is the only fiat currency quoted.
const FiatCurrency = "INR"

var ErrInvalidQuote = errors.New("rate service returned an unusable quote")

// Service returns a quote for a fiat amount on a chain.
type Service interface {
	Quote(ctx context.Context, fiat decimal.Decimal, chainID int64) (*Quote, error)
}

// HTTPClient talks to POST /quote on the rate service.
type HTTPClient struct {
	client *httpclient.Client
}

func NewHTTPClient(client *httpclient.Client) *HTTPClient {
	return &HTTPClient{client: client}
}

func (c *HTTPClient) Quote(ctx context.Context, fiat decimal.Decimal, chainID int64) (*Quote, error) {
	var q Quote
	req := quoteRequest{FiatAmount: fiat, Currency: FiatCurrency, ChainID: chainID}
	if err := c.client.Post(ctx, "/quote", req, &q); err != nil {
		return nil, err
	}

	if q.FiatAmount.IsZero() {
		q.FiatAmount = fiat
	}
	if q.ChainID == 0 {
		q.ChainID = chainID
	}
	if err := check(&q, fiat, chainID); err != nil {
		return nil, err
	}
	return &q, nil
}

func check(q *Quote, fiat decimal.Decimal, chainID int64) error {
	if !q.Matches(fiat, chainID) {
		return fmt.Errorf("%w: quote is for %s on chain %d", ErrInvalidQuote, q.FiatAmount, q.ChainID)
	}
	if !q.TotalUSDCAmount.IsPositive() || !q.ExchangeRate.IsPositive() {
		return fmt.Errorf("%w: total %s rate %s", ErrInvalidQuote, q.TotalUSDCAmount, q.ExchangeRate)
	}
	if q.NetworkFee.IsNegative() || q.TotalUSDCAmount.LessThan(q.USDCAmount) {
		return fmt.Errorf("%w: fee %s total %s", ErrInvalidQuote, q.NetworkFee, q.TotalUSDCAmount)
	}
	return nil
}
