// Package events publishes budget mutation notifications to RabbitMQ so
// external consumers (reporting jobs, sync workers) can react to changes. The
// publisher is optional: a nil *Publisher silently drops everything.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Mutation event names.
const (
	TransactionsAdded   = "transactions.added"
	TransactionUpdated  = "transaction.updated"
	TransactionsDeleted = "transactions.deleted"
	CategoriesChanged   = "categories.changed"
	DataRestored        = "data.restored"
)

// MutationMessage is the wire payload for every event. IDs carry the affected
// transaction or category identifiers; consumers fetch full rows themselves.
type MutationMessage struct {
	Event     string    `json:"event"`
	IDs       []string  `json:"ids,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewPublisher connects, declares a durable direct exchange and queue, and
// binds them with the queue name as routing key.
func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return p, nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.queueName,
		p.queueName, // routing key, same as queue name for direct exchange
		p.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish sends one mutation event. Publishing is best effort from the
// caller's point of view: errors are logged, never returned, so a broker
// outage cannot fail a user request.
func (p *Publisher) Publish(ctx context.Context, event, actor string, ids ...string) {
	if p == nil {
		return
	}
	msg := MutationMessage{
		Event:     event,
		IDs:       ids,
		Actor:     actor,
		Timestamp: time.Now(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "events: marshal message", "event", event, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		p.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "events: publish failed", "event", event, "error", err)
		return
	}
	slog.DebugContext(ctx, "events: published", "event", event, "ids", len(ids))
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
