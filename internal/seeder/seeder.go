package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/database"
	"github.com/Additional-Code/procurement/internal/entity"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger, now: time.Now}
}

type sample struct {
	number      string
	description string
	supplier    string
	amount      string
	status      entity.Status
	daysAgo     int
}

var samples = []sample{
	{"PO-10001", "Office chairs", "Acme Supplies", "1250.00", entity.StatusApproved, 20},
	{"PO-10002", "Laptops for engineering", "TechWorld", "15450.75", entity.StatusShipped, 15},
	{"PO-10003", "Printer paper", "PrintCo", "399.99", entity.StatusDraft, 10},
	{"PO-10004", "Coffee beans", "Bean Brothers", "220.50", entity.StatusCompleted, 5},
}

// PurchaseOrders inserts the sample purchase orders into an empty table.
// It returns the number of rows inserted; a populated table is left alone.
func (s *Seeder) PurchaseOrders(ctx context.Context) (int, error) {
	existing, err := s.db.NewSelect().Model((*entity.PurchaseOrder)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count purchase orders: %w", err)
	}
	if existing > 0 {
		s.logger.Info("purchase orders already present; skipping seed", zap.Int("existing", existing))
		return 0, nil
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	orders := make([]entity.PurchaseOrder, 0, len(samples))
	for _, sm := range samples {
		orders = append(orders, entity.PurchaseOrder{
			PONumber:     sm.number,
			Description:  sm.description,
			SupplierName: sm.supplier,
			OrderDate:    today.AddDate(0, 0, -sm.daysAgo),
			TotalAmount:  decimal.RequireFromString(sm.amount),
			Status:       sm.status,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if _, err := s.db.NewInsert().Model(&orders).Exec(ctx); err != nil {
		return 0, fmt.Errorf("seed purchase orders: %w", err)
	}

	s.logger.Info("seeded purchase orders", zap.Int("count", len(orders)))
	return len(orders), nil
}
