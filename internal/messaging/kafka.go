package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/config"
)

const (
	minFetchBackoff = time.Second
	maxFetchBackoff = 30 * time.Second
)

type kafkaClient struct {
	writer *kafka.Writer
	reader *kafka.Reader
	topic  string
	logger *zap.Logger
}

func newKafkaClient(cfg config.Messaging, logger *zap.Logger) *kafkaClient {
	k := cfg.Kafka
	return &kafkaClient{
		topic:  k.Topic,
		logger: logger,
		// Keys hash to a partition so every event for one purchase order
		// stays ordered.
		writer: &kafka.Writer{
			Addr:         kafka.TCP(k.Brokers...),
			Topic:        k.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Logger:       kafkaLogger{logger: logger},
			ErrorLogger:  kafkaLogger{logger: logger, errors: true},
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        k.Brokers,
			GroupID:        cfg.ConsumerGroup,
			Topic:          k.Topic,
			MinBytes:       k.MinBytes,
			MaxBytes:       k.MaxBytes,
			CommitInterval: k.CommitInterval,
			Dialer: &kafka.Dialer{
				Timeout:  k.ConnectTimeout,
				ClientID: k.ClientID,
			},
		}),
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

func (k *kafkaClient) Publish(ctx context.Context, msg Message) error {
	if msg.Topic != "" && msg.Topic != k.topic {
		return fmt.Errorf("kafka writer is bound to topic %s, got %s", k.topic, msg.Topic)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: toKafkaHeaders(msg.Headers),
	})
}

func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	backoff := minFetchBackoff
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxFetchBackoff)
			continue
		}
		backoff = minFetchBackoff

		if err := handler(ctx, fromKafkaMessage(msg)); err != nil {
			k.logger.Error("message handler failed",
				zap.Error(err),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			continue
		}
		if err := k.reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("commit failed", zap.Error(err), zap.Int64("offset", msg.Offset))
		}
	}
}

func (k *kafkaClient) Close() error {
	return errors.Join(k.writer.Close(), k.reader.Close())
}

func fromKafkaMessage(msg kafka.Message) Message {
	return Message{
		Topic:   msg.Topic,
		Key:     append([]byte(nil), msg.Key...),
		Value:   append([]byte(nil), msg.Value...),
		Headers: fromKafkaHeaders(msg.Headers),
		Offset:  msg.Offset,
		Time:    msg.Time,
	}
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for key, value := range headers {
		out = append(out, kafka.Header{Key: key, Value: []byte(value)})
	}
	return out
}

func fromKafkaHeaders(headers []kafka.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

// kafkaLogger adapts zap to kafka-go's printf-style logger.
type kafkaLogger struct {
	logger *zap.Logger
	errors bool
}

func (k kafkaLogger) Printf(msg string, args ...any) {
	if k.errors {
		k.logger.Sugar().Errorf(msg, args...)
		return
	}
	k.logger.Sugar().Debugf(msg, args...)
}
