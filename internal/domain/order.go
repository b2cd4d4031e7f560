package domain

// OrderStatus is the post-creation lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusArrived   OrderStatus = "ARRIVED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Label returns the customer-facing name for a status.
func (s OrderStatus) Label() string {
	switch s {
	case StatusPending:
		return "pending payment"
	case StatusConfirmed:
		return "confirmed"
	case StatusShipped:
		return "shipped"
	case StatusArrived:
		return "ready for pickup"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return string(s)
}

// Order is immutable after creation except for status, tracking number and the
// per-status timestamps. Cancellation is a status, never a deletion.
type Order struct {
	ID             string      `db:"id" json:"id"`
	OrderNo        string      `db:"order_no" json:"order_no"`
	UserID         int64       `db:"user_id" json:"user_id"`
	CustomerName   string      `db:"customer_name" json:"customer_name"`
	CustomerPhone  string      `db:"customer_phone" json:"customer_phone"`
	StoreCode      string      `db:"store_code" json:"store_code"`
	Status         OrderStatus `db:"status" json:"status"`
	TrackingNumber string      `db:"tracking_number" json:"tracking_number"`
	Total          float64     `db:"total" json:"total"`
	CreatedAt      string      `db:"created_at" json:"created_at"`
	ConfirmedAt    string      `db:"confirmed_at" json:"confirmed_at,omitempty"`
	ShippedAt      string      `db:"shipped_at" json:"shipped_at,omitempty"`
	ArrivedAt      string      `db:"arrived_at" json:"arrived_at,omitempty"`
	CompletedAt    string      `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt    string      `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// OrderLine freezes unit price (base + selected option prices) at purchase
// time; later product price changes must not reach it.
type OrderLine struct {
	OrderID     string  `db:"order_id" json:"order_id"`
	ProductID   string  `db:"product_id" json:"product_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	Qty         int     `db:"qty" json:"qty"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	OptionsJSON string  `db:"options_json" json:"options_json"`
}

// OptionSnapshot is one element of an OrderLine's options_json payload.
type OptionSnapshot struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
