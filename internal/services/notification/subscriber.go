package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"bistro/internal/logger"
	"bistro/internal/messaging"
	"bistro/internal/models"
)

// Consumer delivers raw queue messages to a handler until ctx ends
type Consumer interface {
	Run(ctx context.Context, handler messaging.MessageHandler) error
}

var channelIcons = map[string]string{
	"sms":     "📱",
	"email":   "📧",
	"push":    "🔔",
	"in_app":  "🖥",
	"slack":   "💬",
	"webhook": "🔗",
}

// Subscriber displays the notifications published by the order service
type Subscriber struct {
	consumer Consumer
	out      io.Writer
	logger   *logger.Logger

	displayed atomic.Int64
}

func NewSubscriber(consumer Consumer, out io.Writer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		out:      out,
		logger:   log,
	}
}

// Start consumes notifications until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	if err := s.consumer.Run(ctx, s.handleNotification); err != nil {
		s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		return err
	}

	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, map[string]interface{}{
		"displayed": s.displayed.Load(),
	})
	return nil
}

// Displayed is the number of notifications shown so far
func (s *Subscriber) Displayed() int64 {
	return s.displayed.Load()
}

func (s *Subscriber) handleNotification(_ context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Debug("notification_received", "Received notification", requestID, map[string]interface{}{
		"delivery_id": msg.DeliveryID,
		"event":       msg.Event,
		"channel":     msg.Channel,
	})

	if _, err := fmt.Fprintln(s.out, formatNotification(&msg)); err != nil {
		return fmt.Errorf("failed to display notification: %w", err)
	}
	s.displayed.Add(1)

	s.logger.Info("notification_displayed", "Notification displayed to user", requestID, map[string]interface{}{
		"delivery_id": msg.DeliveryID,
		"observer_id": msg.ObserverID,
		"recipient":   msg.Recipient,
		"event":       msg.Event,
		"timestamp":   msg.Timestamp.Format("2006-01-02 15:04:05"),
	})
	return nil
}

// formatNotification creates a human-readable notification line
func formatNotification(msg *models.NotificationMessage) string {
	icon, ok := channelIcons[msg.Channel]
	if !ok {
		icon = "📋"
	}
	return fmt.Sprintf("%s [%s] %s to %s (%s, %s): %s",
		icon,
		msg.Timestamp.Format("2006-01-02 15:04:05"),
		strings.ToUpper(msg.Channel),
		msg.Recipient,
		msg.Event,
		msg.DeliveryID,
		msg.Message,
	)
}
