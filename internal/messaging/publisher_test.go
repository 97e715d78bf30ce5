package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/models"
	"bistro/internal/notification"
)

func TestToMessage(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	msg := ToMessage(notification.Delivery{
		DeliveryID: "sms_123456",
		ObserverID: "customer:Ann",
		Event:      notification.OrderReady,
		Channel:    notification.SMS,
		Recipient:  "5551234567",
		Message:    "Your order #7 is ready for pickup/delivery!",
		Timestamp:  ts,
	})

	assert.Equal(t, "order_ready", msg.Event)
	assert.Equal(t, "sms", msg.Channel)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	var back models.NotificationMessage
	require.NoError(t, json.Unmarshal(body, &back))
	assert.Equal(t, msg.DeliveryID, back.DeliveryID)
	assert.True(t, ts.Equal(back.Timestamp))
}
