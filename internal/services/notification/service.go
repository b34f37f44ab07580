// Package notification pushes payment status changes to merchants over PubNub.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scanpay/internal/logger"
	"scanpay/internal/models"

	pubnub "github.com/pubnub/go/v7"
)

// EventPaymentStatus is the message type merchants subscribe to.
const EventPaymentStatus = "payment_status"

// Publisher sends one message to one channel.
type Publisher interface {
	Publish(channel string, message map[string]any) error
}

// PubNubPublisher publishes through a PubNub client.
type PubNubPublisher struct {
	pn *pubnub.PubNub
}

// NewPubNubPublisher builds a publish-only client.
func NewPubNubPublisher(publishKey, subscribeKey, userID string) *PubNubPublisher {
	cfg := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	return &PubNubPublisher{pn: pubnub.NewPubNub(cfg)}
}

func (p *PubNubPublisher) Publish(channel string, message map[string]any) error {
	_, status, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	if status.Error != nil {
		return fmt.Errorf("publish to %s: %w", channel, status.Error)
	}
	return nil
}

// Service is a minimal notification service implementation.
type Service struct {
	pub Publisher
	log logger.Logger
	now func() time.Time
}

// NewService creates a new notification service. A nil publisher disables
// delivery.
func NewService(pub Publisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Service{pub: pub, log: log, now: time.Now}
}

// ChannelFor returns the merchant channel for a payee address. Characters
// PubNub does not allow in channel names become underscores.
func ChannelFor(upiID string) string {
	var b strings.Builder
	b.WriteString("merchant-")
	for _, r := range upiID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '@', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NotifyPaymentStatus tells the merchant where a payment stands. Delivery
// failures are returned but never change the record.
func (s *Service) NotifyPaymentStatus(ctx context.Context, tx *models.Transaction) error {
	if s.pub == nil || tx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := map[string]any{
		"type":          EventPaymentStatus,
		"transactionId": tx.ID,
		"upiId":         tx.UpiID,
		"inrAmount":     tx.InrAmount.String(),
		"isSuccess":     tx.IsSuccess,
		"step":          tx.Step,
		"sentAt":        s.now().UTC().Format(time.RFC3339),
	}
	if tx.PayoutStatus != nil {
		msg["payoutStatus"] = *tx.PayoutStatus
	}
	if tx.TxnHash != nil {
		msg["txnHash"] = *tx.TxnHash
	}

	channel := ChannelFor(tx.UpiID)
	if err := s.pub.Publish(channel, msg); err != nil {
		s.log.Warn("payment status notification failed", map[string]any{"channel": channel, "error": err})
		return err
	}
	s.log.Debug("payment status published", map[string]any{"channel": channel, "transactionId": tx.ID})
	return nil
}
