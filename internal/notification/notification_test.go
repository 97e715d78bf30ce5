package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/logger"
	"bistro/internal/outcome"
)

type recorder struct {
	mu   sync.Mutex
	sent []Delivery
}

func (r *recorder) Send(_ context.Context, d Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, d)
	return nil
}

func receivedPayload() Payload {
	return Payload{
		"order_id":      int64(7),
		"old_status":    "received",
		"new_status":    "received",
		"customer_name": "Ann",
		"total":         decimal.RequireFromString("21.5"),
		"items":         []string{"Coffee", "Cheesecake"},
		"eta":           8,
	}
}

func TestCustomer_Channels(t *testing.T) {
	d := NewDeliverer(outcome.Always(), nil, nil)

	tests := []struct {
		name  string
		phone string
		email string
		want  []Channel
	}{
		{"email only", "", "ann@example.com", []Channel{Email}},
		{"phone only", "5551234567", "", []Channel{SMS}},
		{"both", "5551234567", "ann@example.com", []Channel{Email, SMS}},
		{"neither", "", "", []Channel{Email, SMS}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCustomer("Ann", tt.phone, tt.email, d).Channels())
		})
	}
}

func TestCustomer_Update(t *testing.T) {
	rec := &recorder{}
	c := NewCustomer("Ann", "5551234567", "ann@example.com", NewDeliverer(outcome.Always(), nil, rec))

	outs := c.Update(context.Background(), OrderReceived, receivedPayload())
	require.Len(t, outs, 2)

	assert.True(t, outs[0].Success)
	assert.Equal(t, Email, outs[0].Channel)
	assert.Equal(t, "ann@example.com", outs[0].Recipient)
	assert.Equal(t, "Hi Ann, your order #7 has been received! Total: $21.50. We'll notify you when it's ready.", outs[0].Message)
	assert.Equal(t, "email_123456", outs[0].DeliveryID)

	assert.Equal(t, "5551234567", outs[1].Recipient)
	assert.Equal(t, "Your order #7 has been received! Total: $21.50", outs[1].Message)

	assert.Len(t, rec.sent, 2)
	assert.Len(t, c.History(), 2)

	assert.Nil(t, c.Update(context.Background(), Promotion, Payload{}))
}

func TestCustomer_MissingTemplateVariable(t *testing.T) {
	c := NewCustomer("Ann", "5551234567", "", NewDeliverer(outcome.Always(), nil, nil))

	p := receivedPayload()
	delete(p, "eta")
	outs := c.Update(context.Background(), OrderPreparing, p)
	require.Len(t, outs, 1)
	assert.False(t, outs[0].Success)
	assert.True(t, strings.HasPrefix(outs[0].Error, "Template formatting error:"))
	assert.Empty(t, outs[0].DeliveryID)
}

func TestCustomer_TemplateErrorIsPerChannel(t *testing.T) {
	c := NewCustomer("Ann", "5551234567", "ann@example.com", NewDeliverer(outcome.Always(), nil, nil))
	c.SetChannels(Email, Slack)

	outs := c.Update(context.Background(), OrderReady, receivedPayload())
	require.Len(t, outs, 2)
	assert.True(t, outs[0].Success)
	assert.False(t, outs[1].Success)
	assert.Contains(t, outs[1].Error, "no template found for channel slack")
}

func TestDeliver_FailureAndSenderError(t *testing.T) {
	c := NewCustomer("Ann", "5551234567", "", NewDeliverer(outcome.Never(), nil, nil))
	outs := c.Update(context.Background(), OrderReady, receivedPayload())
	require.Len(t, outs, 1)
	assert.False(t, outs[0].Success)
	assert.Equal(t, "sms delivery failed", outs[0].Error)

	broken := SenderFunc(func(context.Context, Delivery) error { return errors.New("broker down") })
	c = NewCustomer("Ann", "5551234567", "", NewDeliverer(outcome.Always(), nil, broken))
	outs = c.Update(context.Background(), OrderReady, receivedPayload())
	require.Len(t, outs, 1)
	assert.False(t, outs[0].Success)
	assert.Contains(t, outs[0].Error, "broker down")
}

func TestStaff_Roles(t *testing.T) {
	d := NewDeliverer(outcome.Always(), nil, nil)

	tests := []struct {
		role     Role
		supports []EventType
		ignores  []EventType
	}{
		{Kitchen, []EventType{OrderReceived, OrderPreparing}, []EventType{OrderReady, PaymentSuccessful}},
		{Server, []EventType{OrderPreparing, OrderReady}, []EventType{OrderReceived, OrderDelivered}},
		{Manager, []EventType{OrderReceived, OrderReady, PaymentSuccessful, PaymentFailed}, []EventType{OrderPreparing}},
		{Cashier, []EventType{PaymentSuccessful, PaymentFailed}, []EventType{OrderReceived}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			s, err := NewStaff("Bob", tt.role, d)
			require.NoError(t, err)
			for _, e := range tt.supports {
				assert.True(t, s.Supports(e), e)
			}
			for _, e := range tt.ignores {
				assert.False(t, s.Supports(e), e)
			}
		})
	}

	_, err := NewStaff("Bob", "janitor", d)
	assert.Error(t, err)
	_, err = ParseRole("janitor")
	assert.Error(t, err)
	r, err := ParseRole(" Kitchen ")
	require.NoError(t, err)
	assert.Equal(t, Kitchen, r)
}

func TestStaff_SingleInAppAttempt(t *testing.T) {
	s, err := NewStaff("Chef", Kitchen, NewDeliverer(outcome.Always(), nil, nil))
	require.NoError(t, err)

	outs := s.Update(context.Background(), OrderReceived, receivedPayload())
	require.Len(t, outs, 1)
	assert.Equal(t, InApp, outs[0].Channel)
	assert.Equal(t, "NEW ORDER: #7 (2 items)", outs[0].Message)
	assert.Equal(t, "Chef", outs[0].Recipient)
}

func TestPromotional_Preferences(t *testing.T) {
	p := NewPromotional("Cat", "cat@example.com", []string{"desserts"}, NewDeliverer(outcome.Always(), nil, nil))
	ctx := context.Background()
	promo := Payload{"message": "20% off!", "promo_code": "SAVE20", "category": "drinks"}

	assert.Nil(t, p.Update(ctx, Promotion, promo))

	promo["category"] = "desserts"
	outs := p.Update(ctx, Promotion, promo)
	require.Len(t, outs, 2)
	assert.Equal(t, "Hi Cat! 20% off! Use code: SAVE20", outs[0].Message)
	assert.Equal(t, "cat@example.com", outs[0].Recipient)
	assert.Equal(t, "20% off!", outs[1].Message)

	// no category always passes
	delete(promo, "category")
	assert.Len(t, p.Update(ctx, Promotion, promo), 2)

	// other promotional events ignore preferences
	assert.Len(t, p.Update(ctx, LoyaltyReward, Payload{"message": "free pie", "category": "drinks"}), 2)

	p.RemovePreference("desserts")
	p.AddPreference("drinks")
	p.AddPreference("drinks")
	assert.Equal(t, []string{"drinks"}, p.Preferences())

	assert.Nil(t, p.Update(ctx, OrderReady, receivedPayload()))
}

type panicky struct{}

func (panicky) ID() string             { return "panicky" }
func (panicky) Supports(EventType) bool { return true }
func (panicky) Update(context.Context, EventType, Payload) []Outcome {
	panic("boom")
}

func TestSubject_AttachDetachAndIsolation(t *testing.T) {
	var s Subject
	d := NewDeliverer(outcome.Always(), nil, nil)
	c := NewCustomer("Ann", "5551234567", "", d)
	k, err := NewStaff("Chef", Kitchen, d)
	require.NoError(t, err)

	assert.True(t, s.Attach(c))
	assert.False(t, s.Attach(c))
	assert.True(t, s.Attach(panicky{}))
	assert.True(t, s.Attach(k))
	assert.Equal(t, 3, s.Len())

	outs := s.Notify(context.Background(), OrderReceived, receivedPayload())
	require.Len(t, outs, 3)
	assert.True(t, outs[0].Success)
	assert.False(t, outs[1].Success)
	assert.Contains(t, outs[1].Error, "boom")
	assert.True(t, outs[2].Success)

	assert.True(t, s.Detach(c))
	assert.False(t, s.Detach(c))
	assert.Equal(t, 2, s.Len())
}

// tagged is an observer backed by an uncomparable type
type tagged map[string]string

func (t tagged) ID() string            { return t["id"] }
func (tagged) Supports(EventType) bool { return true }
func (t tagged) Update(_ context.Context, event EventType, _ Payload) []Outcome {
	return []Outcome{{ObserverID: t.ID(), Event: event, Success: true}}
}

type counter struct{ n int }

func (c *counter) ID() string              { return "counter" }
func (c *counter) Supports(EventType) bool { return true }
func (c *counter) Update(_ context.Context, event EventType, _ Payload) []Outcome {
	c.n++
	return []Outcome{{ObserverID: c.ID(), Event: event, Success: true}}
}

func TestSubject_ObserverIdentity(t *testing.T) {
	tests := []struct {
		name       string
		first      Observer
		second     Observer
		wantSecond bool
	}{
		{name: "same map observer", first: tagged{"id": "audit"}, second: tagged{"id": "audit"}, wantSecond: false},
		{name: "distinct map observers", first: tagged{"id": "audit"}, second: tagged{"id": "billing"}, wantSecond: true},
		{name: "distinct pointers sharing an id", first: &counter{}, second: &counter{}, wantSecond: true},
		{name: "pointer and value sharing an id", first: &counter{}, second: tagged{"id": "counter"}, wantSecond: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Subject
			require.NotPanics(t, func() {
				assert.True(t, s.Attach(tt.first))
				assert.False(t, s.Attach(tt.first))
				assert.Equal(t, tt.wantSecond, s.Attach(tt.second))
			})
			if tt.wantSecond {
				assert.Equal(t, 2, s.Len())
			} else {
				assert.Equal(t, 1, s.Len())
			}

			outs := s.Notify(context.Background(), OrderReady, receivedPayload())
			assert.Len(t, outs, s.Len())

			require.NotPanics(t, func() {
				assert.True(t, s.Detach(tt.first))
				assert.False(t, s.Detach(tt.first))
			})
			assert.Equal(t, s.Len() == 1, tt.wantSecond)
		})
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(logger.NewWithWriter("test", &buf))
	require.NoError(t, s.Send(context.Background(), Delivery{DeliveryID: "sms_123456", Channel: SMS, Message: "hello"}))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"request_id":"sms_123456"`)
}

func TestMoney(t *testing.T) {
	for in, want := range map[any]string{
		3:       "3.00",
		2.5:     "2.50",
		"1.005": "1.01",
	} {
		got, err := money(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := money(struct{}{})
	assert.Error(t, err)
}
