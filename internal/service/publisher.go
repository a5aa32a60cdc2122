package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/intervention-decision-service/internal/logger"
	q "github.com/iliyamo/intervention-decision-service/internal/queue"
)

// EventPublisher delivers decision events to downstream consumers.
type EventPublisher interface {
	PublishDecisionAssigned(ctx context.Context, event q.DecisionAssignedEvent) error
}

// NopPublisher drops every event.  It is used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishDecisionAssigned(context.Context, q.DecisionAssignedEvent) error {
	return nil
}

// AMQPPublisher publishes to RabbitMQ.  A connection is opened per event;
// decision requests arrive at most a few times a day per user so the
// dial cost does not matter.
type AMQPPublisher struct {
	URL string
	Log *logger.Logger
}

// PublishDecisionAssigned publishes event to the decision.assigned queue.
// It never panics; errors are logged and returned so the caller can
// choose to ignore them.  Messages are marked as persistent.
func (p *AMQPPublisher) PublishDecisionAssigned(ctx context.Context, event q.DecisionAssignedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.DecisionQueueName, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.DecisionQueueName, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", "error", err)
		return err
	}
	return nil
}
