package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PurchaseOrder represents a purchase order stored in the relational database.
type PurchaseOrder struct {
	bun.BaseModel `bun:"table:purchase_orders"`

	ID           int64           `bun:"id,pk,autoincrement" json:"id"`
	PONumber     string          `bun:"po_number,notnull" json:"po_number"`
	Description  string          `bun:"description,notnull" json:"description"`
	SupplierName string          `bun:"supplier_name,notnull" json:"supplier_name"`
	OrderDate    time.Time       `bun:"order_date,notnull" json:"order_date"`
	TotalAmount  decimal.Decimal `bun:"total_amount,type:decimal(14,2),notnull" json:"total_amount"`
	Status       Status          `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}
