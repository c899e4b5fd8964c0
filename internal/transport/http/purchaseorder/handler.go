package purchaseorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/dto"
	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/export"
	"github.com/Additional-Code/procurement/internal/presentation/http/response"
	"github.com/Additional-Code/procurement/internal/presentation/http/validation"
	repo "github.com/Additional-Code/procurement/internal/repository/purchaseorder"
	service "github.com/Additional-Code/procurement/internal/service/purchaseorder"
	"github.com/Additional-Code/procurement/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/procurement/transport/http/purchaseorder")

// BasePath is the collection route for purchase orders.
const BasePath = "/purchase-orders"

// Service is the behavior the handler needs from the record service.
type Service interface {
	List(ctx context.Context, filter repo.Filter) (dto.Page[entity.PurchaseOrder], error)
	Export(ctx context.Context, filter repo.Filter) ([]entity.PurchaseOrder, error)
	Get(ctx context.Context, id int64) (*entity.PurchaseOrder, bool, error)
	Create(ctx context.Context, in service.Input) (int64, error)
	Update(ctx context.Context, id int64, in service.Input) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Handler exposes purchase order endpoints over HTTP.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewHandler constructs a purchase order Handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group(BasePath)
	g.GET("", h.list)
	g.GET("/export", h.export)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c, h.logger)

	filter, err := bindFilter(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchaseOrders.list")
	defer span.End()

	page, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.MapPage(page, toResponse)).Build()
}

func (h *Handler) export(c echo.Context) error {
	b := response.New(c, h.logger)

	filter, err := bindFilter(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchaseOrders.export")
	defer span.End()

	orders, err := h.svc.Export(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, orders); err != nil {
		return b.WithError(errorbank.Internal("failed to render export", errorbank.WithCause(err))).Build()
	}

	filename := fmt.Sprintf("purchase-orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c, h.logger)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchaseOrders.getByID", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	po, found, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if !found {
		return b.WithError(notFound(id)).Build()
	}

	return b.WithData(dto.NewPurchaseOrderResponse(po)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c, h.logger)

	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchaseOrders.create", trace.WithAttributes(attribute.String("purchase_order.number", in.PONumber)))
	defer span.End()

	id, err := h.svc.Create(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).
		WithHeader(echo.HeaderLocation, fmt.Sprintf("%s/%d", BasePath, id)).
		WithData(id).
		Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c, h.logger)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchaseOrders.update", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	changed, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	if !changed {
		return b.WithError(notFound(id)).Build()
	}

	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c, h.logger)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "purchaseOrders.delete", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	removed, err := h.svc.Delete(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	if !removed {
		return b.WithError(notFound(id)).Build()
	}

	return b.WithStatus(http.StatusNoContent).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func notFound(id int64) error {
	return errorbank.NotFound(fmt.Sprintf("purchase order %d not found", id))
}

func bindInput(c echo.Context) (service.Input, error) {
	var req dto.PurchaseOrderRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return service.Input{}, errorbank.BadRequest("invalid request body", errorbank.WithCause(err))
	}
	if err := c.Validate(&req); err != nil {
		return service.Input{}, err
	}

	return service.Input{
		PONumber:     req.PONumber,
		Description:  req.Description,
		SupplierName: req.SupplierName,
		OrderDate:    req.OrderDate.Time,
		TotalAmount:  req.TotalAmount,
		Status:       *req.Status,
	}, nil
}

func bindFilter(c echo.Context) (repo.Filter, error) {
	var (
		filter           repo.Filter
		status           string
		dateFrom, dateTo string
	)
	fields := make(map[string][]string)

	err := echo.QueryParamsBinder(c).
		String("supplier", &filter.Supplier).
		String("status", &status).
		String("dateFrom", &dateFrom).
		String("dateTo", &dateTo).
		String("sortBy", &filter.SortBy).
		String("sortDir", &filter.SortDir).
		Int("pageNumber", &filter.PageNumber).
		Int("pageSize", &filter.PageSize).
		BindErrors()
	for _, bindErr := range err {
		var be *echo.BindingError
		if errors.As(bindErr, &be) {
			fields[be.Field] = append(fields[be.Field], fmt.Sprintf("%s must be an integer", be.Field))
		}
	}

	if status != "" {
		parsed, ok := entity.ParseStatus(status)
		if !ok {
			fields["status"] = append(fields["status"], fmt.Sprintf("status %q is not a known status", status))
		}
		filter.Status = parsed
	}
	filter.DateFrom = parseDateParam("dateFrom", dateFrom, fields)
	filter.DateTo = parseDateParam("dateTo", dateTo, fields)

	if len(fields) > 0 {
		return repo.Filter{}, errorbank.Validation(validation.Message, fields)
	}
	return filter, nil
}

func parseDateParam(name, raw string, fields map[string][]string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		fields[name] = append(fields[name], fmt.Sprintf("%s must be a date", name))
		return nil
	}
	return &t
}

func toResponse(po entity.PurchaseOrder) dto.PurchaseOrderResponse {
	return dto.NewPurchaseOrderResponse(&po)
}
