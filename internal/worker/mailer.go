package worker

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/services"
)

// Mailer drains queued notification messages into a Notifier.
type Mailer struct {
	sender services.Notifier
	log    *zap.Logger
}

func NewMailer(sender services.Notifier, log *zap.Logger) *Mailer {
	return &Mailer{sender: sender, log: log}
}

// Run handles deliveries until ctx is done or the channel closes.
func (m *Mailer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	m.log.Info("mailer started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info("mailer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				m.log.Info("deliveries closed")
				return
			}
			m.handle(ctx, d)
		}
	}
}

// handle acks sent messages, drops malformed ones, and requeues a failed
// send once before dropping it.
func (m *Mailer) handle(ctx context.Context, d amqp.Delivery) {
	var msg services.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.To == "" {
		m.log.Error("bad message, dropping", zap.Uint64("tag", d.DeliveryTag), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		requeue := !d.Redelivered
		m.log.Warn("send failed", zap.String("to", msg.To), zap.Bool("requeue", requeue), zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}

	_ = d.Ack(false)
}
