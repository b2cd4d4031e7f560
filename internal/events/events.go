// Package events carries the order-lifecycle events the core exposes to the
// surrounding system.
package events

import "context"

const (
	RouteOrderCreated  = "order.created"
	RouteStatusChanged = "order.status_changed"
)

type OrderLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderCreated struct {
	OrderNo       string      `json:"order_no"`
	UserID        int64       `json:"user_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	StoreCode     string      `json:"store_code"`
	Total         float64     `json:"total"`
	CreatedAt     string      `json:"created_at"`
	Lines         []OrderLine `json:"lines"`
}

type StatusChanged struct {
	OrderNo        string `json:"order_no"`
	UserID         int64  `json:"user_id"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// Nop discards events; the default when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
