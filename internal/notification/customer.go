package notification

import (
	"context"
	"slices"
)

var customerEvents = []EventType{
	OrderReceived, OrderPreparing, OrderReady, OrderDelivered, PaymentSuccessful, PaymentFailed,
}

var customerTemplates = newTemplateSet("customer", map[EventType]map[Channel]string{
	OrderReceived: {
		SMS:   "Your order #{{.order_id}} has been received! Total: ${{money .total}}",
		Email: "Hi {{.customer_name}}, your order #{{.order_id}} has been received! Total: ${{money .total}}. We'll notify you when it's ready.",
		Push:  "Order #{{.order_id}} received - ${{money .total}}",
	},
	OrderPreparing: {
		SMS:   "Your order #{{.order_id}} is now being prepared. ETA: {{.eta}} minutes",
		Email: "Good news {{.customer_name}}! Your order #{{.order_id}} is now being prepared. Estimated time: {{.eta}} minutes.",
		Push:  "Order #{{.order_id}} is being prepared - ETA {{.eta}} min",
	},
	OrderReady: {
		SMS:   "Your order #{{.order_id}} is ready for pickup/delivery!",
		Email: "Great news {{.customer_name}}! Your order #{{.order_id}} is ready for pickup/delivery!",
		Push:  "Order #{{.order_id}} is ready!",
	},
	OrderDelivered: {
		SMS:   "Your order #{{.order_id}} has been delivered. Thank you!",
		Email: "Thank you {{.customer_name}}! Your order #{{.order_id}} has been delivered. We hope you enjoy your meal!",
		Push:  "Order #{{.order_id}} delivered. Thank you!",
	},
	PaymentSuccessful: {
		SMS:   "Payment confirmed! ${{money .amount}} via {{.payment_method}} (ID: {{.transaction_id}})",
		Email: "Hi {{.customer_name}}, your payment of ${{money .amount}} via {{.payment_method}} has been confirmed. Transaction ID: {{.transaction_id}}",
		Push:  "Payment confirmed - ${{money .amount}}",
	},
	PaymentFailed: {
		SMS:   "Payment failed for order #{{.order_id}}. Please try a different payment method.",
		Email: "Hi {{.customer_name}}, payment failed for order #{{.order_id}}. Please try a different payment method or contact support.",
		Push:  "Payment failed - please retry",
	},
})

// Customer notifies the person who placed an order
type Customer struct {
	history
	channelSet
	d     *Deliverer
	name  string
	phone string
	email string
}

// NewCustomer picks email when an address is known and sms when a phone is known.
// With neither it falls back to both.
func NewCustomer(name, phone, email string, d *Deliverer) *Customer {
	c := &Customer{d: d, name: name, phone: phone, email: email}
	var channels []Channel
	if email != "" {
		channels = append(channels, Email)
	}
	if phone != "" {
		channels = append(channels, SMS)
	}
	if len(channels) == 0 {
		channels = []Channel{Email, SMS}
	}
	c.SetChannels(channels...)
	return c
}

func (c *Customer) ID() string { return "customer:" + c.name }

func (c *Customer) Name() string { return c.name }

func (c *Customer) Supports(event EventType) bool {
	return slices.Contains(customerEvents, event)
}

func (c *Customer) recipient(channel Channel) string {
	switch {
	case channel == Email && c.email != "":
		return c.email
	case channel != Email && c.phone != "":
		return c.phone
	default:
		return c.name
	}
}

func (c *Customer) Update(ctx context.Context, event EventType, payload Payload) []Outcome {
	if !c.Supports(event) {
		return nil
	}

	data := withVars(payload, "customer_name", c.name)
	var outs []Outcome
	for _, ch := range c.Channels() {
		msg, err := customerTemplates.render(event, ch, data)
		if err != nil {
			outs = append(outs, templateFailure(c.ID(), event, ch, c.name, err))
			continue
		}
		outs = append(outs, c.d.deliver(ctx, c.ID(), event, ch, c.recipient(ch), msg))
	}
	c.record(outs...)
	return outs
}
