package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/testutil"
)

func TestSeeder_PurchaseOrdersSeedsEmptyTableOnce(t *testing.T) {
	conns := testutil.NewDatabase(t)
	s := New(conns, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 21, 18, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	inserted, err := s.PurchaseOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	inserted, err = s.PurchaseOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	var orders []entity.PurchaseOrder
	require.NoError(t, conns.Reader.NewSelect().Model(&orders).Order("po_number ASC").Scan(ctx))
	require.Len(t, orders, 4)

	first := orders[0]
	assert.Equal(t, "PO-10001", first.PONumber)
	assert.Equal(t, "Acme Supplies", first.SupplierName)
	assert.Equal(t, "1250.00", first.TotalAmount.StringFixed(2))
	assert.Equal(t, entity.StatusApproved, first.Status)
	assert.True(t, first.OrderDate.Equal(testutil.Day(2024, 3, 1)), first.OrderDate)

	assert.Equal(t, "15450.75", orders[1].TotalAmount.StringFixed(2))
	assert.Equal(t, entity.StatusCompleted, orders[3].Status)
}

func TestSeeder_SkipsPopulatedTable(t *testing.T) {
	conns := testutil.NewDatabase(t)
	ctx := context.Background()
	existing := testutil.PurchaseOrder("PO-1", "Acme", "10.00", entity.StatusDraft, testutil.Day(2024, 1, 1))
	_, err := conns.Writer.NewInsert().Model(existing).Exec(ctx)
	require.NoError(t, err)

	inserted, err := New(conns, zap.NewNop()).PurchaseOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
