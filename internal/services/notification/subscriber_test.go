package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/logger"
	"bistro/internal/messaging"
	"bistro/internal/models"
)

type sliceConsumer struct {
	bodies [][]byte
	errs   []error
}

func (c *sliceConsumer) Run(ctx context.Context, handler messaging.MessageHandler) error {
	for _, b := range c.bodies {
		c.errs = append(c.errs, handler(ctx, b))
	}
	return nil
}

func message(t *testing.T, msg models.NotificationMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestSubscriber_DisplaysNotifications(t *testing.T) {
	ts := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
	consumer := &sliceConsumer{bodies: [][]byte{
		message(t, models.NotificationMessage{
			DeliveryID: "sms_123456",
			ObserverID: "customer:Ann",
			Event:      "order_ready",
			Channel:    "sms",
			Recipient:  "5551234567",
			Message:    "Your order #7 is ready for pickup/delivery!",
			Timestamp:  ts,
		}),
		[]byte(`{not json`),
		message(t, models.NotificationMessage{
			DeliveryID: "in_app_654321",
			ObserverID: "staff:kitchen:Gordon",
			Event:      "order_received",
			Channel:    "in_app",
			Recipient:  "Gordon",
			Message:    "NEW ORDER: #7 (2 items)",
			Timestamp:  ts,
		}),
	}}

	var out bytes.Buffer
	s := NewSubscriber(consumer, &out, logger.Discard())
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, int64(2), s.Displayed())
	require.Len(t, consumer.errs, 3)
	assert.NoError(t, consumer.errs[0])
	assert.Error(t, consumer.errs[1])
	assert.NoError(t, consumer.errs[2])

	assert.Contains(t, out.String(), "📱 [2025-03-01 18:30:00] SMS to 5551234567 (order_ready, sms_123456): Your order #7 is ready for pickup/delivery!")
	assert.Contains(t, out.String(), "IN_APP to Gordon")
}

type failingConsumer struct{}

func (failingConsumer) Run(context.Context, messaging.MessageHandler) error {
	return errors.New("failed to reconnect")
}

func TestSubscriber_ConsumerFailure(t *testing.T) {
	s := NewSubscriber(failingConsumer{}, &bytes.Buffer{}, logger.Discard())
	assert.ErrorContains(t, s.Start(context.Background()), "failed to reconnect")
}

func TestFormatNotification_UnknownChannel(t *testing.T) {
	line := formatNotification(&models.NotificationMessage{Channel: "fax", Recipient: "x", Message: "hi"})
	assert.Contains(t, line, "📋")
	assert.Contains(t, line, "FAX to x")
}
