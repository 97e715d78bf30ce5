package noop

import (
	"context"

	"bistro/internal/order"
	"bistro/internal/payment"
)

// Publisher is a no-op EventPublisher used when Kafka is not configured.
type Publisher struct{}

func (Publisher) PublishOrderCreated(_ context.Context, _ order.View) error { return nil }

func (Publisher) PublishOrderStatusChanged(_ context.Context, _ order.View, _, _ order.Status) error {
	return nil
}

func (Publisher) PublishPaymentProcessed(_ context.Context, _ order.View, _ payment.Result) error {
	return nil
}

func (Publisher) Close() error { return nil }
