// Package queue mirrors feed invalidation signals onto a message broker so
// out-of-process consumers (push delivery, analytics) can react without
// holding a Redis subscription.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const feedChangedQueue = "tonight.feed.changed"

type FeedChangedMessage struct {
	EventID   int64  `json:"event_id"`
	Table     string `json:"table"`
	ChangedAt string `json:"changed_at"`
}

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	const op = "queue.NewPublisher"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	// Durable so signals survive a broker restart; consumers tolerate
	// duplicates the same way SSE clients do.
	if _, err := ch.QueueDeclare(feedChangedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	_ = p.ch.Close()
	_ = p.conn.Close()
}

// PublishFeedChanged sends one invalidation message. Callers treat errors as
// non-fatal: the Redis path still reaches connected viewers.
func (p *Publisher) PublishFeedChanged(ctx context.Context, eventID int64, table string) error {
	const op = "queue.Publisher.PublishFeedChanged"

	if p == nil {
		return nil
	}

	body, err := json.Marshal(FeedChangedMessage{
		EventID:   eventID,
		Table:     table,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", feedChangedQueue, false, false, pub); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
