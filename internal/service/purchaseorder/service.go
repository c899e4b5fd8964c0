package purchaseorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/cache"
	"github.com/Additional-Code/procurement/internal/config"
	"github.com/Additional-Code/procurement/internal/dto"
	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/messaging"
	repo "github.com/Additional-Code/procurement/internal/repository/purchaseorder"
	"github.com/Additional-Code/procurement/pkg/errorbank"
	"github.com/Additional-Code/procurement/pkg/money"
)

const instrumentationName = "github.com/Additional-Code/procurement/service/purchaseorder"

var serviceTracer = otel.Tracer(instrumentationName)

// exportPageSize bounds each page fetched while exporting.
const exportPageSize = 500

// Mutation outcomes recorded on the mutations counter.
const (
	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

// Input carries the client-supplied fields of a create or update.
type Input struct {
	PONumber     string
	Description  *string
	SupplierName string
	OrderDate    time.Time
	TotalAmount  decimal.Decimal
	Status       entity.Status
}

// Service encapsulates business logic around purchase orders.
type Service struct {
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	mutations metric.Int64Counter
	now       func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mutations, err := otel.Meter(instrumentationName).Int64Counter(
		"purchase_orders.mutations",
		metric.WithDescription("Purchase order create, update and delete attempts."),
	)
	if err != nil {
		logger.Warn("register mutations counter", zap.Error(err))
	}

	return &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		mutations: mutations,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of purchase orders matching the filter. The page
// envelope reports the effective page parameters.
func (s *Service) List(ctx context.Context, filter repo.Filter) (dto.Page[entity.PurchaseOrder], error) {
	filter = filter.Normalize()
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.List")
	defer span.End()

	items, total, err := s.repo.Query(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.Page[entity.PurchaseOrder]{}, errorbank.Internal("failed to list purchase orders", errorbank.WithCause(err))
	}

	return dto.Page[entity.PurchaseOrder]{
		Items:      items,
		TotalCount: total,
		PageNumber: filter.PageNumber,
		PageSize:   filter.PageSize,
	}, nil
}

// Export returns every purchase order matching the filter, in list order.
// The filter's page parameters are ignored.
func (s *Service) Export(ctx context.Context, filter repo.Filter) ([]entity.PurchaseOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Export")
	defer span.End()

	filter.PageSize = exportPageSize
	var all []entity.PurchaseOrder
	for filter.PageNumber = 1; ; filter.PageNumber++ {
		items, total, err := s.repo.Query(ctx, filter)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to export purchase orders", errorbank.WithCause(err))
		}
		all = append(all, items...)
		if len(items) < filter.PageSize || int64(len(all)) >= total {
			break
		}
	}

	span.SetAttributes(attribute.Int("export.rows", len(all)))
	return all, nil
}

// Get retrieves a purchase order by id, consulting cache when available.
// A missing record is reported through the boolean, not an error.
func (s *Service) Get(ctx context.Context, id int64) (*entity.PurchaseOrder, bool, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Get", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	if po, err := s.getFromCache(ctx, id); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return po, true, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("purchase orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	po, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, false, errorbank.Internal("failed to load purchase order", errorbank.WithCause(err))
	}

	s.refreshCache(ctx, po)
	return po, true, nil
}

// Create validates uniqueness of the PO number, persists a normalized record
// and returns its id.
func (s *Service) Create(ctx context.Context, in Input) (int64, error) {
	in = in.normalize()
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Create", trace.WithAttributes(attribute.String("purchase_order.number", in.PONumber)))
	defer span.End()

	if err := s.ensureUnique(ctx, in.PONumber, 0); err != nil {
		s.recordMutation(ctx, "create", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "uniqueness check failed")
		return 0, err
	}

	now := s.now()
	po := &entity.PurchaseOrder{CreatedAt: now}
	in.apply(po, now)

	if err := s.repo.Create(ctx, po); err != nil {
		err = s.translateWriteErr(in.PONumber, "failed to create purchase order", err)
		s.recordMutation(ctx, "create", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return 0, err
	}

	span.SetAttributes(attribute.Int64("purchase_order.id", po.ID))
	s.recordMutation(ctx, "create", nil)
	s.refreshCache(ctx, po)
	s.publish(ctx, newEvent(EventCreated, po, now))
	return po.ID, nil
}

// Update replaces every field of an existing purchase order. It reports false
// when no record with id exists. The PO number may only collide with the
// record itself; the stored casing is always replaced.
func (s *Service) Update(ctx context.Context, id int64, in Input) (bool, error) {
	in = in.normalize()
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Update", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	po, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		s.recordOutcome(ctx, "update", outcomeNotFound)
		return false, nil
	}
	if err != nil {
		err = errorbank.Internal("failed to load purchase order", errorbank.WithCause(err))
		s.recordMutation(ctx, "update", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, err
	}

	// The store decides case-insensitive equality; a match on this record
	// itself is a casing change, not a duplicate.
	if err := s.ensureUnique(ctx, in.PONumber, id); err != nil {
		s.recordMutation(ctx, "update", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "uniqueness check failed")
		return false, err
	}

	now := s.now()
	in.apply(po, now)

	changed, err := s.repo.Update(ctx, po)
	if err != nil {
		err = s.translateWriteErr(in.PONumber, "failed to update purchase order", err)
		s.recordMutation(ctx, "update", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, err
	}

	// Invalidate only: a Get racing this update could otherwise write the
	// old row back over a refreshed entry.
	s.invalidateCache(ctx, id)
	if !changed {
		s.recordOutcome(ctx, "update", outcomeNotFound)
		return false, nil
	}

	s.recordMutation(ctx, "update", nil)
	s.publish(ctx, newEvent(EventUpdated, po, now))
	return true, nil
}

// Delete permanently removes a purchase order and reports whether it existed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Delete", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		err = errorbank.Internal("failed to delete purchase order", errorbank.WithCause(err))
		s.recordMutation(ctx, "delete", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, err
	}

	s.invalidateCache(ctx, id)
	if !removed {
		s.recordOutcome(ctx, "delete", outcomeNotFound)
		return false, nil
	}

	s.recordMutation(ctx, "delete", nil)
	s.publish(ctx, newEvent(EventDeleted, &entity.PurchaseOrder{ID: id}, s.now()))
	return true, nil
}

// ensureUnique fails when another record than selfID holds poNumber.
func (s *Service) ensureUnique(ctx context.Context, poNumber string, selfID int64) error {
	existing, err := s.repo.GetByPONumber(ctx, poNumber)
	switch {
	case err == nil && existing.ID == selfID:
		return nil
	case err == nil:
		return duplicateError(poNumber, nil)
	case errors.Is(err, repo.ErrNotFound):
		return nil
	default:
		return errorbank.Internal("failed to check purchase order number", errorbank.WithCause(err))
	}
}

func (s *Service) translateWriteErr(poNumber, message string, err error) error {
	if errors.Is(err, repo.ErrDuplicatePONumber) {
		return duplicateError(poNumber, err)
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func duplicateError(poNumber string, cause error) *errorbank.AppError {
	msg := fmt.Sprintf("PO Number '%s' already exists.", poNumber)
	if cause != nil {
		return errorbank.BusinessRule(msg, errorbank.WithCause(cause))
	}
	return errorbank.BusinessRule(msg)
}

func (s *Service) recordMutation(ctx context.Context, operation string, err error) {
	outcome := outcomeSuccess
	switch {
	case err == nil:
	case errorbank.IsKind(err, errorbank.KindBusinessRuleViolation):
		outcome = outcomeConflict
	default:
		outcome = outcomeError
	}
	s.recordOutcome(ctx, operation, outcome)
}

func (s *Service) recordOutcome(ctx context.Context, operation, outcome string) {
	if s.mutations == nil {
		return
	}
	s.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func (s *Service) publish(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal purchase order event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Topic:   s.messaging.topic,
		Key:     []byte(fmt.Sprintf("purchase-order-%d", event.ID)),
		Value:   payload,
		Headers: map[string]string{HeaderEventType: event.Type},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish purchase order event", zap.String("type", event.Type), zap.Int64("id", event.ID), zap.Error(err))
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("purchase-orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		return nil, err
	}
	var po entity.PurchaseOrder
	if err := json.Unmarshal(bytes, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (s *Service) refreshCache(ctx context.Context, po *entity.PurchaseOrder) {
	if s.cache == nil || po == nil {
		return
	}
	bytes, err := json.Marshal(po)
	if err == nil {
		err = s.cache.Set(ctx, cacheKey(po.ID), bytes, s.cacheTTL)
	}
	if err != nil {
		s.logger.Warn("purchase orders cache write failed", zap.Int64("id", po.ID), zap.Error(err))
	}
}

func (s *Service) invalidateCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("purchase orders cache delete failed", zap.Int64("id", id), zap.Error(err))
	}
}

func (in Input) normalize() Input {
	in.PONumber = strings.TrimSpace(in.PONumber)
	in.SupplierName = strings.TrimSpace(in.SupplierName)
	description := ""
	if in.Description != nil {
		description = strings.TrimSpace(*in.Description)
	}
	in.Description = &description
	in.OrderDate = repo.TruncateDate(in.OrderDate)
	in.TotalAmount = money.Round(in.TotalAmount)
	return in
}

func (in Input) apply(po *entity.PurchaseOrder, now time.Time) {
	po.PONumber = in.PONumber
	po.Description = *in.Description
	po.SupplierName = in.SupplierName
	po.OrderDate = in.OrderDate
	po.TotalAmount = in.TotalAmount
	po.Status = in.Status
	po.UpdatedAt = now
}
