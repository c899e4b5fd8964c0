// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/procurement/internal/config"
	"github.com/Additional-Code/procurement/internal/database"
	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/migration"
)

// SQLiteConfig returns a configuration pointing at a private in-memory
// SQLite database. A single connection keeps the shared cache alive and
// serializes writers.
func SQLiteConfig() config.Config {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return config.Config{
		Database: config.Database{
			Driver:       "sqlite",
			WriterDSN:    dsn,
			ReaderDSN:    dsn,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
	}
}

// NewDatabase opens a migrated in-memory database that is closed when t ends.
func NewDatabase(t testing.TB) *database.Connections {
	t.Helper()
	return Migrate(t, SQLiteConfig())
}

// Migrate opens the database described by cfg and applies every migration.
func Migrate(t testing.TB, cfg config.Config) *database.Connections {
	t.Helper()

	lc := fxtest.NewLifecycle(t)
	conns, err := database.New(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(func() { lc.RequireStop() })

	migrator, err := migration.New(cfg, conns, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up(context.Background()))

	return conns
}

// PurchaseOrder builds a valid, unsaved purchase order.
func PurchaseOrder(number, supplier string, amount string, status entity.Status, orderDate time.Time) *entity.PurchaseOrder {
	now := time.Now().UTC()
	return &entity.PurchaseOrder{
		PONumber:     number,
		SupplierName: supplier,
		OrderDate:    orderDate,
		TotalAmount:  decimal.RequireFromString(amount),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
