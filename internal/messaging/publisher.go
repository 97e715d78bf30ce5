package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bistro/internal/logger"
	"bistro/internal/models"
	"bistro/internal/notification"
)

// Publisher sends rendered notifications to the fanout exchange.
// It satisfies notification.Sender.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{conn: conn, logger: log}
}

// Send publishes d as a NotificationMessage
func (p *Publisher) Send(ctx context.Context, d notification.Delivery) error {
	return p.PublishNotification(ctx, ToMessage(d))
}

// ToMessage converts a delivery into its wire form
func ToMessage(d notification.Delivery) models.NotificationMessage {
	return models.NotificationMessage{
		DeliveryID: d.DeliveryID,
		ObserverID: d.ObserverID,
		Event:      string(d.Event),
		Channel:    string(d.Channel),
		Recipient:  d.Recipient,
		Message:    d.Message,
		Timestamp:  d.Timestamp.UTC(),
	}
}

// PublishNotification publishes msg to the notifications fanout exchange
func (p *Publisher) PublishNotification(ctx context.Context, msg models.NotificationMessage) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		NotificationsExchange, // exchange
		"",                    // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.DeliveryID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", NotificationsExchange),
			msg.DeliveryID, err, map[string]interface{}{"channel": msg.Channel})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", NotificationsExchange),
		msg.DeliveryID, map[string]interface{}{
			"channel":      msg.Channel,
			"message_size": len(body),
		})
	return nil
}
