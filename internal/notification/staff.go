package notification

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Role is a staff member's job, which decides the events they hear about
type Role string

const (
	Kitchen Role = "kitchen"
	Server  Role = "server"
	Manager Role = "manager"
	Cashier Role = "cashier"
)

var roleEvents = map[Role][]EventType{
	Kitchen: {OrderReceived, OrderPreparing},
	Server:  {OrderPreparing, OrderReady},
	Manager: {OrderReceived, OrderReady, PaymentSuccessful, PaymentFailed},
	Cashier: {PaymentSuccessful, PaymentFailed},
}

// ParseRole rejects roles outside the fixed set
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleEvents[r]; !ok {
		return "", fmt.Errorf("unknown staff role: %q", s)
	}
	return r, nil
}

var staffTemplates = newTemplateSet("staff", map[EventType]map[Channel]string{
	OrderReceived: {
		Slack: "New order #{{.order_id}} received - {{.item_count}} items",
		InApp: "NEW ORDER: #{{.order_id}} ({{.item_count}} items)",
		Push:  "New order #{{.order_id}} - {{.item_count}} items",
	},
	OrderPreparing: {
		Slack: "Order #{{.order_id}} in preparation",
		InApp: "PREPARING: Order #{{.order_id}}",
		Push:  "Order #{{.order_id}} in preparation",
	},
	OrderReady: {
		Slack: "Order #{{.order_id}} ready for service!",
		InApp: "READY: Order #{{.order_id}} - ready for service!",
		Push:  "Order #{{.order_id}} ready for service!",
	},
	PaymentSuccessful: {
		Slack: "Payment received! Order #{{.order_id}} - ${{money .amount}} via {{.payment_method}}",
		InApp: "PAYMENT: Order #{{.order_id}} - ${{money .amount}} via {{.payment_method}}",
		Push:  "Payment received - ${{money .amount}}",
	},
	PaymentFailed: {
		Slack: "Payment FAILED for order #{{.order_id}} - Requires attention!",
		InApp: "PAYMENT FAILED: Order #{{.order_id}} - action required",
		Push:  "Payment failed - order #{{.order_id}}",
	},
})

// Staff notifies a restaurant employee about the events of their role
type Staff struct {
	history
	channelSet
	d    *Deliverer
	name string
	role Role
}

// NewStaff creates a staff observer on the in-app channel
func NewStaff(name string, role Role, d *Deliverer) (*Staff, error) {
	if _, ok := roleEvents[role]; !ok {
		return nil, fmt.Errorf("unknown staff role: %q", role)
	}
	s := &Staff{d: d, name: name, role: role}
	s.SetChannels(InApp)
	return s, nil
}

func (s *Staff) ID() string { return "staff:" + string(s.role) + ":" + s.name }

func (s *Staff) Name() string { return s.name }

func (s *Staff) Role() Role { return s.role }

func (s *Staff) Supports(event EventType) bool {
	return slices.Contains(roleEvents[s.role], event)
}

func (s *Staff) Update(ctx context.Context, event EventType, payload Payload) []Outcome {
	if !s.Supports(event) {
		return nil
	}

	data := withVars(payload, "staff_name", s.name, "role", string(s.role), "item_count", itemCount(payload))
	var outs []Outcome
	for _, ch := range s.Channels() {
		msg, err := staffTemplates.render(event, ch, data)
		if err != nil {
			outs = append(outs, templateFailure(s.ID(), event, ch, s.name, err))
			continue
		}
		outs = append(outs, s.d.deliver(ctx, s.ID(), event, ch, s.name, msg))
	}
	s.record(outs...)
	return outs
}

func itemCount(payload Payload) int {
	if n, ok := payload["item_count"].(int); ok {
		return n
	}
	v := reflect.ValueOf(payload["items"])
	if v.Kind() == reflect.Slice {
		return v.Len()
	}
	return 0
}
