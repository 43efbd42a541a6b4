package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"employee-service/internal/config"
)

const (
	DriverNone  = ""
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// Event is the envelope published for every employee lifecycle change.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher interface for messaging (NATS/Kafka)
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

func New(cfg config.MessagingConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case DriverNone:
		return NoopPublisher{}, nil
	case DriverNATS:
		return NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case DriverKafka:
		return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown messaging driver %q", cfg.Driver)
	}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
