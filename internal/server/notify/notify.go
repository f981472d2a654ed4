// Package notify publishes branch change events to RabbitMQ. Publishing is
// best effort: callers log a failure and carry on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/server/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "branch.changes"

const (
	EventDeleted = "deleted"
	EventRebased = "rebased"
	EventMoved   = "moved"
)

type Event struct {
	Type       string            `json:"type"`
	AccountID  string            `json:"accountId"`
	Kind       models.Kind       `json:"kind"`
	ID         string            `json:"id"`
	Parent     *models.ParentRef `json:"parent,omitempty"`
	Removed    int               `json:"removed,omitempty"`
	Moved      []models.ChildRef `json:"moved,omitempty"`
	ArchiveKey string            `json:"archiveKey,omitempty"`
	At         time.Time         `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// openChannel dials the broker and opens a channel. The returned func closes
// the connection.
var openChannel = func(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// AMQPPublisher opens a connection per message.
type AMQPPublisher struct {
	url   string
	queue string
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ch, closeConn, err := openChannel(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = closeConn() }()
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
