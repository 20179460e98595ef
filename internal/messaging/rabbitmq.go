// Package messaging publishes outbox events to RabbitMQ.
package messaging

import (
	"context"
	"sync"
	"time"

	"smarttrack/internal/config"
	"smarttrack/internal/outbox"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

const DefaultExchange = "smarttrack.events"

// RabbitMQPublisher sends each outbox event to a durable topic exchange,
// routed by event type (e.g. "trip.status_changed").
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	cb       *gobreaker.CircuitBreaker
}

func NewRabbitMQPublisher(amqpURL, exchange string) (*RabbitMQPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declare the exchange (idempotent)
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		cb:       config.NewCircuitBreaker("RabbitMQ-Publisher"),
	}, nil
}

// Publish implements outbox.Publisher. The message id is the outbox id so
// consumers can drop redeliveries.
func (p *RabbitMQPublisher) Publish(ctx context.Context, ev outbox.Event) error {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= 0 {
		return ctx.Err()
	}

	_, err := p.cb.Execute(func() (interface{}, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return nil, p.ch.PublishWithContext(
			ctx,
			p.exchange,
			ev.EventType, // routing key
			false,        // mandatory
			false,        // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    ev.ID,
				Type:         ev.EventType,
				Timestamp:    ev.CreatedAt,
				Headers: amqp.Table{
					"aggregate_type": ev.AggregateType,
					"aggregate_id":   ev.AggregateID,
				},
				Body: ev.Payload,
			},
		)
	})
	return err
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
