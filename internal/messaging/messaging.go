package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/config"
)

// HeaderEventType names the header that carries a message's event type.
const HeaderEventType = "event-type"

// Message is a bus record independent of the broker in use.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// EventType returns the event type header, or "" when absent.
func (m Message) EventType() string {
	return m.Headers[HeaderEventType]
}

// Handler processes an inbound message. A non-nil error leaves the message
// uncommitted.
type Handler func(context.Context, Message) error

// Client publishes to and consumes from a single topic.
type Client interface {
	Publish(ctx context.Context, msg Message) error
	// Consume blocks, feeding messages to handler until ctx is done.
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient returns the kafka client, or a no-op client when messaging is
// disabled.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	m := cfg.Messaging
	if !m.Enabled || m.Driver == "noop" {
		logger.Info("messaging disabled; using noop client")
		return noopClient{topic: m.Kafka.Topic}, nil
	}

	if m.Driver != "kafka" {
		return nil, fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}
	client := newKafkaClient(m, logger)
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		logger.Info("closing kafka client", zap.String("topic", client.topic))
		return client.Close()
	}})
	return client, nil
}

type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, Message) error { return nil }

func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n noopClient) Topic() string { return n.topic }
