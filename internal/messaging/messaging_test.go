package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/config"
)

func TestHeadersRoundTrip(t *testing.T) {
	headers := map[string]string{HeaderEventType: "purchase_order.created", "trace": "abc"}

	kafkaHeaders := toKafkaHeaders(headers)
	assert.ElementsMatch(t, []kafka.Header{
		{Key: HeaderEventType, Value: []byte("purchase_order.created")},
		{Key: "trace", Value: []byte("abc")},
	}, kafkaHeaders)
	assert.Equal(t, headers, fromKafkaHeaders(kafkaHeaders))

	assert.Nil(t, toKafkaHeaders(nil))
	assert.Nil(t, fromKafkaHeaders(nil))
}

func TestMessage_EventType(t *testing.T) {
	assert.Equal(t, "purchase_order.deleted", Message{Headers: map[string]string{HeaderEventType: "purchase_order.deleted"}}.EventType())
	assert.Empty(t, Message{}.EventType())
}

func TestNewClient_DisabledUsesNoop(t *testing.T) {
	cfg := config.Config{Messaging: config.Messaging{Driver: "kafka", Kafka: config.Kafka{Topic: "purchase-orders.events"}}}
	client, err := NewClient(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "purchase-orders.events", client.Topic())
	require.NoError(t, client.Publish(context.Background(), Message{Value: []byte("ignored")}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.DeadlineExceeded)
}

func TestNewClient_RejectsUnknownDriver(t *testing.T) {
	cfg := config.Config{Messaging: config.Messaging{Enabled: true, Driver: "nats"}}
	_, err := NewClient(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestKafkaClient_RejectsForeignTopic(t *testing.T) {
	client := &kafkaClient{topic: "purchase-orders.events", logger: zap.NewNop()}
	err := client.Publish(context.Background(), Message{Topic: "invoices.events"})
	assert.ErrorContains(t, err, "bound to topic")
}

func TestNewKafkaClient_BindsConfiguredTopic(t *testing.T) {
	client := newKafkaClient(config.Messaging{
		ConsumerGroup: "procurement-worker",
		Kafka: config.Kafka{
			Brokers:  []string{"127.0.0.1:9092"},
			Topic:    "purchase-orders.events",
			MinBytes: 1,
			MaxBytes: 1e6,
		},
	}, zap.NewNop())

	assert.Equal(t, "purchase-orders.events", client.Topic())
	assert.Equal(t, "purchase-orders.events", client.writer.Topic)
	assert.Equal(t, "procurement-worker", client.reader.Config().GroupID)
	assert.NoError(t, client.Close())
}

func TestFromKafkaMessage_CopiesPayload(t *testing.T) {
	key := []byte("purchase-order-7")
	in := kafka.Message{
		Topic:   "purchase-orders.events",
		Key:     key,
		Value:   []byte(`{"id":7}`),
		Offset:  42,
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("purchase_order.updated")}},
	}

	out := fromKafkaMessage(in)
	key[0] = 'X'

	assert.Equal(t, "purchase-order-7", string(out.Key))
	assert.Equal(t, int64(42), out.Offset)
	assert.Equal(t, "purchase_order.updated", out.EventType())
}
