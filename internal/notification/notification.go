// Package notification delivers order and marketing events to customers,
// staff and promotional subscribers over simulated channels.
package notification

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"bistro/internal/outcome"
)

// EventType names a broadcast event
type EventType string

const (
	OrderReceived     EventType = "order_received"
	OrderPreparing    EventType = "order_preparing"
	OrderReady        EventType = "order_ready"
	OrderDelivered    EventType = "order_delivered"
	PaymentSuccessful EventType = "payment_successful"
	PaymentFailed     EventType = "payment_failed"

	Promotion         EventType = "promotion"
	LoyaltyReward     EventType = "loyalty_reward"
	BirthdayOffer     EventType = "birthday_offer"
	SeasonalPromotion EventType = "seasonal_promotion"
	NewMenuItem       EventType = "new_menu_item"
	SpecialEvent      EventType = "special_event"
)

// Payload carries the event variables used by templates
type Payload map[string]any

// Channel is a delivery medium
type Channel string

const (
	SMS     Channel = "sms"
	Email   Channel = "email"
	Push    Channel = "push"
	InApp   Channel = "in_app"
	Slack   Channel = "slack"
	Webhook Channel = "webhook"
)

// Rates holds the simulated success rate per channel
type Rates map[Channel]float64

func DefaultRates() Rates {
	return Rates{SMS: 0.98, Email: 0.95, Push: 0.90, InApp: 0.99, Slack: 0.97, Webhook: 0.93}
}

// Outcome is the result of one delivery attempt
type Outcome struct {
	Success    bool      `json:"success"`
	ObserverID string    `json:"observer_id"`
	Event      EventType `json:"event"`
	Channel    Channel   `json:"channel"`
	Recipient  string    `json:"recipient"`
	Message    string    `json:"message"`
	Error      string    `json:"error,omitempty"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Observer receives broadcast events
type Observer interface {
	ID() string
	Supports(event EventType) bool
	// Update delivers the event on every preferred channel. Unsupported events yield nil.
	Update(ctx context.Context, event EventType, payload Payload) []Outcome
}

// Delivery is a rendered message handed to a Sender
type Delivery struct {
	DeliveryID string    `json:"delivery_id"`
	ObserverID string    `json:"observer_id"`
	Event      EventType `json:"event"`
	Channel    Channel   `json:"channel"`
	Recipient  string    `json:"recipient"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sender transports a delivery to its recipient
type Sender interface {
	Send(ctx context.Context, d Delivery) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, d Delivery) error

func (f SenderFunc) Send(ctx context.Context, d Delivery) error { return f(ctx, d) }

// Deliverer decides simulated channel success and forwards successful deliveries to the Sender
type Deliverer struct {
	src    outcome.Source
	rates  Rates
	sender Sender
}

// NewDeliverer builds a Deliverer. Channels missing from rates use the defaults.
func NewDeliverer(src outcome.Source, rates Rates, sender Sender) *Deliverer {
	merged := DefaultRates()
	maps.Copy(merged, rates)
	if sender == nil {
		sender = SenderFunc(func(context.Context, Delivery) error { return nil })
	}
	return &Deliverer{src: src, rates: merged, sender: sender}
}

func (d *Deliverer) deliver(ctx context.Context, observerID string, event EventType, channel Channel, recipient, message string) Outcome {
	now := time.Now()
	out := Outcome{
		ObserverID: observerID,
		Event:      event,
		Channel:    channel,
		Recipient:  recipient,
		Message:    message,
		Timestamp:  now,
	}

	if !d.src.Succeeds(d.rates[channel]) {
		out.Error = fmt.Sprintf("%s delivery failed", channel)
		return out
	}

	id := fmt.Sprintf("%s_%d", channel, d.src.Suffix())
	err := d.sender.Send(ctx, Delivery{
		DeliveryID: id,
		ObserverID: observerID,
		Event:      event,
		Channel:    channel,
		Recipient:  recipient,
		Message:    message,
		Timestamp:  now,
	})
	if err != nil {
		out.Error = fmt.Sprintf("%s delivery failed: %v", channel, err)
		return out
	}

	out.Success = true
	out.DeliveryID = id
	return out
}

func templateFailure(observerID string, event EventType, channel Channel, recipient string, err error) Outcome {
	return Outcome{
		ObserverID: observerID,
		Event:      event,
		Channel:    channel,
		Recipient:  recipient,
		Error:      fmt.Sprintf("Template formatting error: %v", err),
		Timestamp:  time.Now(),
	}
}

// history is the per-observer delivery log
type history struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (h *history) record(out ...Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, out...)
}

// History returns a copy of every outcome this observer produced
func (h *history) History() []Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.outcomes)
}

// channelSet holds an observer's preferred channels
type channelSet struct {
	mu       sync.RWMutex
	channels []Channel
}

func (c *channelSet) SetChannels(channels ...Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels = slices.Clone(channels)
}

func (c *channelSet) Channels() []Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.channels)
}

func withVars(payload Payload, kv ...any) Payload {
	data := make(Payload, len(payload)+len(kv)/2)
	maps.Copy(data, payload)
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i].(string)] = kv[i+1]
	}
	return data
}
