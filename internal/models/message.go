package models

import "time"

// NotificationMessage is a rendered delivery published to the notifications fanout exchange
type NotificationMessage struct {
	DeliveryID string    `json:"delivery_id"`
	ObserverID string    `json:"observer_id"`
	Event      string    `json:"event"`
	Channel    string    `json:"channel"`
	Recipient  string    `json:"recipient"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
