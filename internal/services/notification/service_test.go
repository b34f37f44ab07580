package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"scanpay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	channel string
	message map[string]any
	err     error
}

func (c *capture) Publish(channel string, message map[string]any) error {
	c.channel = channel
	c.message = message
	return c.err
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, "merchant-shop@okaxis", ChannelFor("shop@okaxis"))
	assert.Equal(t, "merchant-my_shop@ok_bank", ChannelFor("my.shop@ok/bank"))
}

func TestNotifyPaymentStatus(t *testing.T) {
	pub := &capture{}
	svc := NewService(pub, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	status := models.PayoutStatusFailed
	hash := "0xfeed"
	tx := &models.Transaction{
		ID:           "rec-1",
		UpiID:        "shop@okaxis",
		InrAmount:    decimal.NewFromInt(850),
		IsSuccess:    true,
		PayoutStatus: &status,
		TxnHash:      &hash,
		Step:         "payout_failed",
	}

	require.NoError(t, svc.NotifyPaymentStatus(context.Background(), tx))
	assert.Equal(t, "merchant-shop@okaxis", pub.channel)
	assert.Equal(t, EventPaymentStatus, pub.message["type"])
	assert.Equal(t, "failed", pub.message["payoutStatus"])
	assert.Equal(t, "850", pub.message["inrAmount"])
	assert.Equal(t, "2025-01-02T03:04:05Z", pub.message["sentAt"])
}

func TestNotifyPaymentStatus_PublishError(t *testing.T) {
	svc := NewService(&capture{err: errors.New("403 forbidden")}, nil)
	err := svc.NotifyPaymentStatus(context.Background(), &models.Transaction{UpiID: "a@b"})
	assert.Error(t, err)
}

func TestNotifyPaymentStatus_Disabled(t *testing.T) {
	svc := NewService(nil, nil)
	assert.NoError(t, svc.NotifyPaymentStatus(context.Background(), &models.Transaction{UpiID: "a@b"}))
}
