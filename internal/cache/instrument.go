package cache

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instrumentedStore struct {
	Store
	lookups metric.Int64Counter
	driver  attribute.KeyValue
}

// Instrument wraps store so every Get records a cache.lookups data point
// tagged with the driver and a hit, miss or error result.
func Instrument(store Store, driver string) (Store, error) {
	lookups, err := otel.Meter("github.com/Additional-Code/procurement/cache").Int64Counter(
		"cache.lookups",
		metric.WithDescription("Cache lookups by result."),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache lookups counter: %w", err)
	}
	return &instrumentedStore{
		Store:   store,
		lookups: lookups,
		driver:  attribute.String("driver", driver),
	}, nil
}

func (s *instrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.Store.Get(ctx, key)
	s.lookups.Add(ctx, 1, metric.WithAttributes(s.driver, attribute.String("result", lookupResult(err))))
	return value, err
}

func lookupResult(err error) string {
	switch {
	case err == nil:
		return "hit"
	case errors.Is(err, ErrCacheMiss):
		return "miss"
	default:
		return "error"
	}
}
