package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the audit event sink. Services publish after their transaction
// commits; test doubles record events in memory.
type Publisher interface {
	Publish(ctx context.Context, event AuditEvent) error
}

// AuditPublisher publishes audit events to the durable audit queue.
type AuditPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

func NewAuditPublisher(conn *RabbitMQConnection) *AuditPublisher {
	return &AuditPublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

func (p *AuditPublisher) Publish(ctx context.Context, event AuditEvent) error {
	_, err := p.conn.Channel.QueueDeclare(
		AuditQueue, // queue name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",         // exchange
		AuditQueue, // routing key (queue name)
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish audit event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Audit event published",
		"component", event.Component,
		"action", event.Action,
		"entity_id", event.EntityID,
	)

	return nil
}

// GetMetrics returns publisher metrics
func (p *AuditPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              AuditQueue,
	}
}
