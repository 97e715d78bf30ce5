package notification

import (
	"context"

	"bistro/internal/logger"
)

// LogSender writes each delivery to the structured log instead of a real gateway
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, d Delivery) error {
	s.log.Info("notification_sent", d.Message, d.DeliveryID, map[string]interface{}{
		"channel":   string(d.Channel),
		"recipient": d.Recipient,
		"event":     string(d.Event),
		"observer":  d.ObserverID,
	})
	return nil
}
