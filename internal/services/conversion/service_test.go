package conversion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scanpay/internal/utils/httpclient"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "850", req["fiatAmount"])
		assert.Equal(t, "INR", req["currency"])
		assert.Equal(t, float64(8453), req["chainId"])

		_, _ = w.Write([]byte(`{"usdcAmount":"10.2","exchangeRate":"0.012","networkFee":"0.09","totalUsdcAmount":"10.29","networkName":"Base","lastUpdated":"2025-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(httpclient.New("conversion", srv.URL, time.Second))
	q, err := c.Quote(context.Background(), decimal.RequireFromString("850.00"), 8453)
	require.NoError(t, err)

	assert.Equal(t, "10.29", q.TotalUSDCAmount.String())
	assert.Equal(t, "Base", q.NetworkName)
	assert.True(t, q.Matches(decimal.NewFromInt(850), 8453))
}

func TestHTTPClient_RejectsUnusableQuotes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"zero total", `{"usdcAmount":"0","exchangeRate":"0.012","networkFee":"0","totalUsdcAmount":"0"}`},
		{"total below amount", `{"usdcAmount":"10","exchangeRate":"0.012","networkFee":"0","totalUsdcAmount":"9"}`},
		{"other amount", `{"fiatAmount":"900","usdcAmount":"10","exchangeRate":"0.012","networkFee":"0","totalUsdcAmount":"10"}`},
		{"negative fee", `{"usdcAmount":"10","exchangeRate":"0.012","networkFee":"-1","totalUsdcAmount":"10"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.reply))
			}))
			defer srv.Close()

			c := NewHTTPClient(httpclient.New("conversion", srv.URL, time.Second))
			_, err := c.Quote(context.Background(), decimal.NewFromInt(850), 8453)
			assert.ErrorIs(t, err, ErrInvalidQuote)
		})
	}
}

func TestHTTPClient_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(httpclient.New("conversion", srv.URL, time.Second))
	_, err := c.Quote(context.Background(), decimal.NewFromInt(850), 8453)
	assert.Error(t, err)
}
