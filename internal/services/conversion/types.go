package conversion

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a time-bounded conversion of one fiat amount on one chain.
// A different fiat amount needs a new quote.
type Quote struct {
	FiatAmount      decimal.Decimal `json:"fiatAmount"`
	ChainID         int64           `json:"chainId"`
	USDCAmount      decimal.Decimal `json:"usdcAmount"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	NetworkFee      decimal.Decimal `json:"networkFee"`
	TotalUSDCAmount decimal.Decimal `json:"totalUsdcAmount"`
	NetworkName     string          `json:"networkName"`
	LastUpdated     time.Time       `json:"lastUpdated"`
}

// Matches reports whether q was produced for this amount and chain.
func (q *Quote) Matches(fiat decimal.Decimal, chainID int64) bool {
	return q.ChainID == chainID && q.FiatAmount.Equal(fiat)
}

type quoteRequest struct {
	FiatAmount decimal.Decimal `json:"fiatAmount"`
	Currency   string          `json:"currency"`
	ChainID    int64           `json:"chainId"`
}
