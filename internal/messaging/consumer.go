package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bistro/internal/logger"
)

// MessageHandler processes one message body. A returned error requeues the message.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer reads messages from a queue and acknowledges them manually
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
}

func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
	}
}

// Run consumes until ctx is cancelled, reconnecting when the broker drops the channel
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	for {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			c.logger.Info("consumer_stopped", "Consumer stopped by context", "", nil)
			return nil
		}
		c.logger.Error("consumer_channel_closed", "Message channel closed, attempting to reconnect", "", err, nil)
		if err := c.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect after channel closed: %w", err)
		}
	}
}

func (c *Consumer) consume(ctx context.Context, handler MessageHandler) error {
	ch := c.conn.Channel()
	if ch == nil {
		return errors.New("no open channel")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer_started",
		fmt.Sprintf("Started consuming from queue %s", c.queueName),
		"", map[string]interface{}{
			"queue":    c.queueName,
			"consumer": c.consumerTag,
			"prefetch": c.prefetch,
		})

	for {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(c.consumerTag, false); err != nil {
				c.logger.Error("consumer_cancel_failed", "Failed to cancel consumer", "", err, nil)
			}
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.process(ctx, d, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp091.Delivery, handler MessageHandler) {
	start := time.Now()

	processingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fields := map[string]interface{}{
		"queue":        c.queueName,
		"delivery_tag": d.DeliveryTag,
	}

	if err := handler(processingCtx, d.Body); err != nil {
		fields["duration_ms"] = time.Since(start).Milliseconds()
		c.logger.Error("message_processing_failed", "Failed to process message", d.MessageId, err, fields)

		// malformed bodies are dropped; anything else is retried once
		var syntaxErr *json.SyntaxError
		requeue := !d.Redelivered && !errors.As(err, &syntaxErr)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			c.logger.Error("message_nack_failed", "Failed to nack message", d.MessageId, nackErr, nil)
		}
		return
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	c.logger.Debug("message_processed", "Successfully processed message", d.MessageId, fields)
	if ackErr := d.Ack(false); ackErr != nil {
		c.logger.Error("message_ack_failed", "Failed to ack message", d.MessageId, ackErr, nil)
	}
}
