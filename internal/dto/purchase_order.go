package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/pkg/money"
)

// PurchaseOrderResponse represents a purchase order as exposed via transport layers.
type PurchaseOrderResponse struct {
	ID           int64         `json:"id"`
	PONumber     string        `json:"poNumber"`
	Description  string        `json:"description"`
	SupplierName string        `json:"supplierName"`
	OrderDate    time.Time     `json:"orderDate"`
	TotalAmount  money.Fixed   `json:"totalAmount"`
	Status       entity.Status `json:"status"`
}

// PurchaseOrderRequest is the body accepted by create and update.
type PurchaseOrderRequest struct {
	PONumber     string          `json:"poNumber" validate:"notblank,max=50"`
	Description  *string         `json:"description" validate:"omitempty,max=500"`
	SupplierName string          `json:"supplierName" validate:"notblank,max=200"`
	OrderDate    *Date           `json:"orderDate" validate:"required"`
	TotalAmount  decimal.Decimal `json:"totalAmount" validate:"amount"`
	Status       *entity.Status  `json:"status" validate:"required,status"`
}

// NewPurchaseOrderResponse maps an entity onto its transport shape.
func NewPurchaseOrderResponse(po *entity.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:           po.ID,
		PONumber:     po.PONumber,
		Description:  po.Description,
		SupplierName: po.SupplierName,
		OrderDate:    po.OrderDate.UTC(),
		TotalAmount:  money.NewFixed(po.TotalAmount),
		Status:       po.Status,
	}
}
