package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// PaymentEvent describes a ledger append for downstream consumers
// (notifications, accounting exports).
type PaymentEvent struct {
	Reference     string    `json:"reference"`
	StudentCode   string    `json:"student_code"`
	FeeID         uint      `json:"fee_id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	ReceiptNumber string    `json:"receipt_number"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentEventPublisher emits payment events. Publish failures must never
// fail the payment itself; implementations log and move on.
type PaymentEventPublisher interface {
	PublishPaymentReceived(ctx context.Context, event PaymentEvent) error
}

type natsPaymentPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPaymentPublisher publishes payment events to a NATS subject. A nil
// connection yields a no-op publisher so the wiring stays optional.
func NewNATSPaymentPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) PaymentEventPublisher {
	return &natsPaymentPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "payment_events").Logger(),
	}
}

func (p *natsPaymentPublisher) PublishPaymentReceived(ctx context.Context, event PaymentEvent) error {
	if p.conn == nil || p.subject == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("reference", event.Reference).Msg("failed to publish payment event")
		return err
	}

	return nil
}
