package order

import (
	"strings"

	"bistro/internal/notification"
)

// Status is the order lifecycle stage
type Status string

const (
	StatusReceived  Status = "received"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

var statusEvents = map[Status]notification.EventType{
	StatusReceived:  notification.OrderReceived,
	StatusPreparing: notification.OrderPreparing,
	StatusReady:     notification.OrderReady,
	StatusDelivered: notification.OrderDelivered,
}

// ParseStatus accepts any casing of a known status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", unknownStatus(s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statusEvents[s]
	return ok
}

// Event is the broadcast event for entering s
func (s Status) Event() notification.EventType {
	return statusEvents[s]
}
