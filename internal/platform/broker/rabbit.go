// Package broker publishes domain events to a RabbitMQ topic exchange.
package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Rabbit publishes JSON events. A nil *Rabbit is a valid publisher that drops everything, which
// is what NewRabbit returns when no URL is configured.
type Rabbit struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func NewRabbit(url, exchange string) (*Rabbit, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Rabbit{conn: conn, ch: ch, exchange: exchange}, nil
}

func (r *Rabbit) Publish(ctx context.Context, key string, body []byte) error {
	if r == nil || r.ch == nil {
		return nil
	}
	// amqp channels are not safe for concurrent publishes
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(ctx, r.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    time.Now(),
	})
}

func (r *Rabbit) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
