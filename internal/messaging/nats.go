package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSPublisher(url string, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("employee-service"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish sends the event to the configured subject; key travels in the
// Nats-Msg-Key header.
func (p *NATSPublisher) Publish(ctx context.Context, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "error", err)
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Nats-Msg-Key", key)
	msg.Header.Set("Event-Type", event.Type)
	msg.Data = data

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event to NATS", "error", err)
		return err
	}

	p.logger.DebugContext(ctx, "event published to NATS", "subject", p.subject, "type", event.Type, "key", key)
	return nil
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
