package purchaseorder

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/procurement/internal/database"
	"github.com/Additional-Code/procurement/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/procurement/repository/purchaseorder")

var (
	// ErrNotFound is returned when a purchase order is missing.
	ErrNotFound = errors.New("purchase order not found")
	// ErrDuplicatePONumber is returned when the unique index on the PO number rejects a write.
	ErrDuplicatePONumber = errors.New("duplicate purchase order number")
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
	sqliteUniqueFailure = "UNIQUE constraint failed"
)

// Repository encapsulates read/write access for purchase orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Query returns one page of the orders matching f together with the total
// number of matches before paging.
func (r *Repository) Query(ctx context.Context, f Filter) ([]entity.PurchaseOrder, int64, error) {
	f = f.Normalize()
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Query", trace.WithAttributes(
		attribute.String("query.sort_by", f.SortColumn()),
		attribute.String("query.sort_dir", f.SortDirection()),
		attribute.Int("query.page_number", f.PageNumber),
		attribute.Int("query.page_size", f.PageSize),
	))
	defer span.End()

	total, err := f.applyWhere(r.reader.NewSelect().Model((*entity.PurchaseOrder)(nil))).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, 0, err
	}

	// Page size is caller controlled; never size allocations by it.
	items := []entity.PurchaseOrder{}
	if f.PastEnd(total) {
		span.SetAttributes(attribute.Int("query.total", total), attribute.Int("query.returned", 0))
		return items, int64(total), nil
	}

	q := f.applyWhere(r.reader.NewSelect().Model(&items))
	q = f.applyPage(f.applyOrder(q))
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("query.total", total), attribute.Int("query.returned", len(items)))
	return items, int64(total), nil
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.GetByID", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	po := new(entity.PurchaseOrder)
	err := r.reader.NewSelect().Model(po).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return po, nil
}

// GetByPONumber looks an order up by PO number, ignoring case. It reads from
// the writer so a uniqueness check never observes replica lag.
func (r *Repository) GetByPONumber(ctx context.Context, poNumber string) (*entity.PurchaseOrder, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.GetByPONumber", trace.WithAttributes(attribute.String("purchase_order.number", poNumber)))
	defer span.End()

	po := new(entity.PurchaseOrder)
	err := r.writer.NewSelect().Model(po).Where("lower(po_number) = lower(?)", poNumber).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return po, nil
}

// Create persists a new order using the write connection and sets its ID.
func (r *Repository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	if po == nil {
		return errors.New("nil purchase order")
	}
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Create", trace.WithAttributes(attribute.String("purchase_order.number", po.PONumber)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(po).Exec(ctx); err != nil {
		err = translateWriteErr(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	span.SetAttributes(attribute.Int64("purchase_order.id", po.ID))
	return nil
}

// Update overwrites every mutable column of po and reports whether a row changed.
func (r *Repository) Update(ctx context.Context, po *entity.PurchaseOrder) (bool, error) {
	if po == nil {
		return false, errors.New("nil purchase order")
	}
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Update", trace.WithAttributes(attribute.Int64("purchase_order.id", po.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model(po).
		Column("po_number", "description", "supplier_name", "order_date", "total_amount", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		err = translateWriteErr(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return false, err
	}
	return rowsChanged(res)
}

// Delete removes the order with id and reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Delete", trace.WithAttributes(attribute.Int64("purchase_order.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.PurchaseOrder)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, err
	}
	return rowsChanged(res)
}

// Count returns the total number of stored orders.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.reader.NewSelect().Model((*entity.PurchaseOrder)(nil)).Count(ctx)
}

func rowsChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func translateWriteErr(err error) error {
	if isUniqueViolation(err) {
		return errors.Join(ErrDuplicatePONumber, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), sqliteUniqueFailure)
}
