package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// QueryHook records the duration of every bun query and logs the ones slower
// than its threshold.
type QueryHook struct {
	logger    *zap.Logger
	threshold time.Duration
	duration  metric.Float64Histogram
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook builds a QueryHook. A zero threshold disables slow query logs.
func NewQueryHook(logger *zap.Logger, threshold time.Duration) (*QueryHook, error) {
	duration, err := otel.Meter("github.com/Additional-Code/procurement/database").Float64Histogram(
		"db.client.query.duration",
		metric.WithDescription("Duration of database queries."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create query duration histogram: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHook{logger: logger, threshold: threshold, duration: duration}, nil
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)
	operation := event.Operation()
	failed := event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows)

	h.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", failed),
	))

	if h.threshold <= 0 || elapsed < h.threshold {
		return
	}
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Duration("elapsed", elapsed),
		zap.String("query", event.Query),
	}
	if failed {
		fields = append(fields, zap.Error(event.Err))
	}
	h.logger.Warn("slow query", fields...)
}
