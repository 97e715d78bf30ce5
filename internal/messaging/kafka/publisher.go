// Package kafka publishes order domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"bistro/internal/messaging"
	"bistro/internal/order"
	"bistro/internal/payment"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes OrderEvents keyed by order id, so events of one order stay ordered
type Publisher struct {
	w writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, v order.View) error {
	return p.publish(ctx, newEvent(messaging.EventOrderCreated, v))
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, v order.View, from, to order.Status) error {
	e := newEvent(messaging.EventOrderStatusChanged, v)
	e.OldStatus = string(from)
	e.NewStatus = string(to)
	return p.publish(ctx, e)
}

func (p *Publisher) PublishPaymentProcessed(ctx context.Context, v order.View, res payment.Result) error {
	e := newEvent(messaging.EventOrderPaymentProcessed, v)
	ok := res.Success
	e.PaymentOK = &ok
	e.TransactionID = res.TransactionID
	return p.publish(ctx, e)
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

func newEvent(eventType string, v order.View) messaging.OrderEvent {
	return messaging.OrderEvent{
		EventType:     eventType,
		OrderID:       v.ID,
		CustomerName:  v.Customer.Name,
		Status:        string(v.Status),
		Total:         v.Total,
		ItemCount:     len(v.Items),
		PaymentMethod: string(v.PaymentMethod),
		OccurredAt:    time.Now().UTC(),
	}
}

func (p *Publisher) publish(ctx context.Context, e messaging.OrderEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", e.EventType, err)
	}

	err = p.w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(strconv.FormatInt(e.OrderID, 10)),
		Value: body,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event for order %d: %w", e.EventType, e.OrderID, err)
	}
	return nil
}
