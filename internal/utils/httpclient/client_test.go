package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scanpay/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostDecodesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "k1", r.Header.Get("X-Api-Key"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "850.00", in["amount"])

		_ = json.NewEncoder(w).Encode(map[string]string{"rate": "0.012"})
	}))
	defer srv.Close()

	c := New("conversion", srv.URL+"/", time.Second,
		WithBearer(func() string { return "secret" }),
		WithHeader("X-Api-Key", "k1"),
	)

	var out map[string]string
	err := c.Post(context.Background(), "/quote", map[string]string{"amount": "850.00"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "0.012", out["rate"])
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"hash already set"}`))
	}))
	defer srv.Close()

	c := New("store", srv.URL, time.Second)
	err := c.Patch(context.Background(), "/api/transactions/1", map[string]string{}, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Contains(t, se.Body, "hash already set")
}

func TestClient_OpenBreakerSkipsCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := utils.NewCircuitBreaker("payout", utils.WithMaxRequests(1), utils.WithFailureRatio(1))
	c := New("payout", srv.URL, time.Second, WithBreaker(cb))

	require.Error(t, c.Get(context.Background(), "/health", nil))
	err := c.Get(context.Background(), "/health", nil)

	assert.ErrorIs(t, err, utils.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}
