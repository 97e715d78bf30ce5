// Package order holds the order aggregate: its items, payment and status
// lifecycle, and the observers notified as it changes.
package order

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bistro/internal/menu"
	"bistro/internal/models"
	"bistro/internal/notification"
	"bistro/internal/outcome"
	"bistro/internal/payment"
)

var (
	ErrUnknownMethod   = errors.New("unknown payment method")
	ErrNoPaymentMethod = errors.New("no payment method selected")
	ErrNoPaymentInfo   = errors.New("no payment information provided")
	ErrUnknownStatus   = errors.New("unknown order status")
)

func unknownStatus(s string) error {
	return fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Customer is the contact information captured at creation
type Customer struct {
	Name  string `json:"customer_name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Order is safe for concurrent use. Every method runs under the order's lock.
type Order struct {
	mu sync.Mutex

	id        int64
	customer  Customer
	createdAt time.Time
	items     []menu.Item
	status    Status

	src         outcome.Source
	rates       payment.Rates
	processor   *payment.Processor
	paymentInfo payment.Info
	result      *payment.Result

	observers notification.Subject
}

// Option configures a new Order
type Option func(*Order)

// WithOutcomeSource sets the source used by payment strategies
func WithOutcomeSource(src outcome.Source) Option {
	return func(o *Order) { o.src = src }
}

func WithPaymentRates(r payment.Rates) Option {
	return func(o *Order) { o.rates = r }
}

// New allocates an id and creates an order in the received status
func New(ctx context.Context, ids IDAllocator, c Customer, opts ...Option) (*Order, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, models.Invalid("customer_name", "customer name is required")
	}

	id, err := ids.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order id: %w", err)
	}

	o := &Order{
		id:        id,
		customer:  c,
		createdAt: time.Now(),
		status:    StatusReceived,
		rates:     payment.DefaultRates,
		processor: payment.NewProcessor(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.src == nil {
		o.src = outcome.NewRandom(0)
	}
	return o, nil
}

func (o *Order) ID() int64 { return o.id }

func (o *Order) Customer() Customer { return o.customer }

func (o *Order) CreatedAt() time.Time { return o.createdAt }

func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Order) Items() []menu.Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.items)
}

// Total is recomputed from the current items on every call
func (o *Order) Total() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.total()
}

func (o *Order) total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.items {
		sum = sum.Add(item.Price)
	}
	return sum
}

func (o *Order) itemNames() []string {
	names := make([]string, len(o.items))
	for i, item := range o.items {
		names[i] = item.Name
	}
	return names
}

// AddItem appends a snapshot of item. Duplicates each take their own slot.
func (o *Order) AddItem(item menu.Item) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, item)
}

// RemoveItem removes the first item called name and reports whether one was found
func (o *Order) RemoveItem(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	i := slices.IndexFunc(o.items, func(item menu.Item) bool { return item.Name == name })
	if i < 0 {
		return false
	}
	o.items = slices.Delete(o.items, i, i+1)
	return true
}

// EstimatedTime is the longest prep time among the items, in minutes
func (o *Order) EstimatedTime() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.estimatedTime()
}

func (o *Order) estimatedTime() int {
	eta := 0
	for _, item := range o.items {
		eta = max(eta, item.PrepTime())
	}
	return eta
}

// SetPaymentMethod selects the payment backend. An unknown id keeps the current one.
func (o *Order) SetPaymentMethod(method string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := payment.NewStrategy(method, o.src, o.rates)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	o.processor.SetStrategy(s)
	return nil
}

// PaymentMethod returns the selected method, if any
func (o *Order) PaymentMethod() (payment.Method, bool) {
	s := o.processor.Strategy()
	if s == nil {
		return "", false
	}
	return s.Method(), true
}

// AddPaymentInfo stores info for the next payment. It is validated when the payment runs.
func (o *Order) AddPaymentInfo(info payment.Info) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paymentInfo = maps.Clone(info)
}

// PaymentResult returns the result of the latest attempt
func (o *Order) PaymentResult() (payment.Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return payment.Result{}, false
	}
	return *o.result, true
}

// PaymentHistory returns every attempt with secrets removed
func (o *Order) PaymentHistory() []payment.Attempt {
	return o.processor.History()
}

// PaymentReport is the outcome of Pay
type PaymentReport struct {
	Result    payment.Result `json:"result"`
	Broadcast Broadcast      `json:"notifications"`
	// Attempt is the history entry this payment recorded
	Attempt payment.Attempt `json:"-"`
}

// ProcessPayment charges the order total and reports whether the payment went through
func (o *Order) ProcessPayment(ctx context.Context) (bool, error) {
	report, err := o.Pay(ctx)
	if err != nil {
		return false, err
	}
	return report.Result.Success, nil
}

// Pay charges the order total, stores the result and notifies observers
func (o *Order) Pay(ctx context.Context) (PaymentReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.processor.Strategy() == nil {
		return PaymentReport{}, ErrNoPaymentMethod
	}
	if len(o.paymentInfo) == 0 {
		return PaymentReport{}, ErrNoPaymentInfo
	}

	amount := o.total()
	attempt, err := o.processor.Charge(amount, o.paymentInfo)
	if err != nil {
		return PaymentReport{}, err
	}
	res := attempt.Result
	o.result = &res

	event := notification.PaymentSuccessful
	payload := notification.Payload{
		"order_id": o.id,
		"amount":   amount,
	}
	if res.Success {
		payload["payment_method"] = res.Method
		payload["transaction_id"] = res.TransactionID
	} else {
		event = notification.PaymentFailed
		payload["error"] = res.Error
	}

	return PaymentReport{
		Result:    res,
		Broadcast: o.broadcast(ctx, event, payload),
		Attempt:   attempt,
	}, nil
}

// UpdateStatus sets the status and notifies observers, even when it is unchanged
func (o *Order) UpdateStatus(ctx context.Context, status Status) (Broadcast, error) {
	_, b, err := o.Transition(ctx, status)
	return b, err
}

// Transition is UpdateStatus, also returning the status it replaced
func (o *Order) Transition(ctx context.Context, status Status) (Status, Broadcast, error) {
	if !status.Valid() {
		return "", Broadcast{}, unknownStatus(string(status))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	old := o.status
	o.status = status
	return old, o.broadcast(ctx, status.Event(), notification.Payload{
		"order_id":      o.id,
		"old_status":    string(old),
		"new_status":    string(status),
		"customer_name": o.customer.Name,
		"total":         o.total(),
		"items":         o.itemNames(),
		"eta":           o.estimatedTime(),
	}), nil
}

// Attach adds an observer; attaching one already present does nothing
func (o *Order) Attach(obs notification.Observer) bool {
	return o.observers.Attach(obs)
}

// Detach removes an observer; detaching one not present does nothing
func (o *Order) Detach(obs notification.Observer) bool {
	return o.observers.Detach(obs)
}

func (o *Order) Observers() []notification.Observer {
	return o.observers.Observers()
}

func (o *Order) broadcast(ctx context.Context, event notification.EventType, payload notification.Payload) Broadcast {
	return Broadcast{
		Event:    event,
		Outcomes: o.observers.Notify(ctx, event, payload),
	}
}
