package purchaseorder

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/config"
	"github.com/Additional-Code/procurement/internal/messaging"
	service "github.com/Additional-Code/procurement/internal/service/purchaseorder"
	"github.com/Additional-Code/procurement/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/procurement/worker/purchaseorder")

// Module registers purchase order event handlers with the worker engine.
var Module = fx.Module("worker_purchase_order",
	fx.Provide(
		fx.Annotate(
			NewRegistrations,
			fx.ResultTags(`group:"worker.handlers,flatten"`),
		),
	),
)

// NewRegistrations binds one handler per lifecycle event type on the
// configured topic.
func NewRegistrations(logger *zap.Logger, cfg config.Config) ([]worker.HandlerRegistration, error) {
	consumed, err := otel.Meter("github.com/Additional-Code/procurement/worker/purchaseorder").
		Int64Counter("purchase_orders.events.consumed",
			metric.WithDescription("Purchase order lifecycle events processed by workers."))
	if err != nil {
		return nil, fmt.Errorf("create consumed counter: %w", err)
	}

	topic := cfg.Messaging.Kafka.Topic
	types := []string{service.EventCreated, service.EventUpdated, service.EventDeleted}
	regs := make([]worker.HandlerRegistration, 0, len(types))
	for _, eventType := range types {
		regs = append(regs, worker.HandlerRegistration{
			Topic:     topic,
			EventType: eventType,
			Handler:   newHandler(eventType, logger, consumed),
		})
	}
	return regs, nil
}

func newHandler(eventType string, logger *zap.Logger, consumed metric.Int64Counter) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.purchase_orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("messaging.event_type", eventType),
		))
		defer span.End()

		var event service.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode purchase order event", zap.String("type", eventType), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.Type != eventType {
			err := fmt.Errorf("event payload type %q does not match header %q", event.Type, eventType)
			logger.Error("mismatched purchase order event", zap.Int64("id", event.ID), zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "type mismatch")
			return err
		}

		fields := []zap.Field{
			zap.String("type", event.Type),
			zap.Int64("id", event.ID),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.Type != service.EventDeleted {
			fields = append(fields,
				zap.String("po_number", event.PONumber),
				zap.String("status", event.Status.String()),
				zap.String("total_amount", event.TotalAmount),
			)
		}
		logger.Info("purchase order event processed", fields...)
		consumed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", event.Type)))

		return nil
	}
}
