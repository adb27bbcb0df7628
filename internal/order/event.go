package order

import "time"

const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event is pushed to admin dashboards after a change has been committed.
type Event struct {
	Type        string    `json:"type"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      Status    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	At          time.Time `json:"at"`
}

// Publisher delivers events best effort. Publish must not block.
type Publisher interface {
	Publish(e Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

func newEvent(kind string, o *Order, at time.Time) Event {
	return Event{
		Type:        kind,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		At:          at.UTC(),
	}
}
