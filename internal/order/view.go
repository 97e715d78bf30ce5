package order

import (
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/notification"
	"bistro/internal/payment"
)

// Broadcast is the fan-out of one event to the attached observers
type Broadcast struct {
	Event    notification.EventType `json:"event"`
	Outcomes []notification.Outcome `json:"outcomes"`
}

func (b Broadcast) Delivered() int {
	n := 0
	for _, out := range b.Outcomes {
		if out.Success {
			n++
		}
	}
	return n
}

func (b Broadcast) Failed() int {
	return len(b.Outcomes) - b.Delivered()
}

// ItemView is a line in an order snapshot
type ItemView struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	PrepTime int             `json:"prep_time"`
}

// View is a consistent, read-only snapshot of an order
type View struct {
	ID            int64           `json:"order_id"`
	Customer      Customer        `json:"customer"`
	Status        Status          `json:"status"`
	Items         []ItemView      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	EstimatedTime int             `json:"estimated_time"`
	PaymentMethod payment.Method  `json:"payment_method,omitempty"`
	PaymentResult *payment.Result `json:"payment_result,omitempty"`
	Observers     []string        `json:"observers"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (o *Order) View() View {
	method, _ := o.PaymentMethod()

	var observers []string
	for _, obs := range o.Observers() {
		observers = append(observers, obs.ID())
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	items := make([]ItemView, len(o.items))
	for i, item := range o.items {
		items[i] = ItemView{
			Name:     item.Name,
			Category: string(item.Category),
			Price:    item.Price,
			PrepTime: item.PrepTime(),
		}
	}

	v := View{
		ID:            o.id,
		Customer:      o.customer,
		Status:        o.status,
		Items:         items,
		Total:         o.total(),
		EstimatedTime: o.estimatedTime(),
		PaymentMethod: method,
		Observers:     observers,
		CreatedAt:     o.createdAt,
	}
	if o.result != nil {
		res := *o.result
		v.PaymentResult = &res
	}
	return v
}
