package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"employee-service/internal/config"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Success", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, sarama.NewConfig())
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var event Event
			if err := json.Unmarshal(val, &event); err != nil {
				return err
			}
			if event.Type != "employee.created" {
				return errors.New("unexpected event type " + event.Type)
			}
			return nil
		})

		p := newKafkaPublisher(producer, "employees.events", logger)
		err := p.Publish(context.Background(), "EMP001", Event{
			Type:       "employee.created",
			OccurredAt: time.Now(),
			Data:       map[string]string{"employee_id": "EMP001"},
		})
		require.NoError(t, err)
		require.NoError(t, p.Close())
	})

	t.Run("BrokerFailure", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, sarama.NewConfig())
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		p := newKafkaPublisher(producer, "employees.events", logger)
		err := p.Publish(context.Background(), "EMP001", Event{Type: "employee.deleted"})
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, p.Close())
	})
}

func TestNew_Drivers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p, err := New(config.MessagingConfig{Driver: DriverNone}, logger)
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), "k", Event{Type: "x"}))

	_, err = New(config.MessagingConfig{Driver: "rabbitmq"}, logger)
	assert.Error(t, err)
}
