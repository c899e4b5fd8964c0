package purchaseorder

import (
	"time"

	"github.com/Additional-Code/procurement/internal/entity"
	"github.com/Additional-Code/procurement/internal/messaging"
)

// Lifecycle event types published to the message bus.
const (
	EventCreated = "purchase_order.created"
	EventUpdated = "purchase_order.updated"
	EventDeleted = "purchase_order.deleted"
)

// HeaderEventType carries the event type alongside the payload.
const HeaderEventType = messaging.HeaderEventType

// Event is emitted after a purchase order is persisted or removed.
type Event struct {
	Type        string        `json:"type"`
	ID          int64         `json:"id"`
	PONumber    string        `json:"poNumber,omitempty"`
	Status      entity.Status `json:"status,omitempty"`
	TotalAmount string        `json:"totalAmount,omitempty"`
	OccurredAt  time.Time     `json:"occurredAt"`
}

func newEvent(kind string, po *entity.PurchaseOrder, at time.Time) Event {
	event := Event{Type: kind, ID: po.ID, OccurredAt: at}
	if kind != EventDeleted {
		event.PONumber = po.PONumber
		event.Status = po.Status
		event.TotalAmount = po.TotalAmount.StringFixed(2)
	}
	return event
}
