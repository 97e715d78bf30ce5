package messaging

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event type constants for order domain events.
const (
	EventOrderCreated          = "order.created"
	EventOrderStatusChanged    = "order.status_changed"
	EventOrderPaymentProcessed = "order.payment_processed"
)

// OrderEvent is the Kafka message envelope for order domain events.
type OrderEvent struct {
	EventType     string          `json:"event_type"`
	OrderID       int64           `json:"order_id"`
	CustomerName  string          `json:"customer_name"`
	Status        string          `json:"status"`
	OldStatus     string          `json:"old_status,omitempty"`
	NewStatus     string          `json:"new_status,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentOK     *bool           `json:"payment_success,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
