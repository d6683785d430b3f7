package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	dialAttempts = 3
	dialDelay    = time.Second
)

// AMQPPublisher publishes JSON events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
}

// NewAMQP connects to url, retrying with exponential backoff, and declares
// the exchange.
func NewAMQP(ctx context.Context, url, exchange string) (*AMQPPublisher, error) {
	conn, err := dialWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, exchange: exchange}, nil
}

func dialWithRetry(ctx context.Context, url string) (*amqp091.Connection, error) {
	var lastErr error
	for i := 1; i <= dialAttempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		sleep := dialDelay << (i - 1)
		log.Warn().Err(err).Int("attempt", i).Dur("sleep", sleep).Msg("amqp dial failed")

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("failed to connect to AMQP after %d attempts: %w", dialAttempts, lastErr)
}

// Publish implements Publisher. Each call uses its own channel.
func (p *AMQPPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	id := msg.Meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	cid := msg.Meta.CorrelationID
	if cid == "" {
		cid = uuid.NewString()
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     id,
		CorrelationId: cid,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err == nil {
		log.Ctx(ctx).Debug().Str("key", key).Str("exchange", p.exchange).Msg("event published")
	}
	return err
}

// Close implements Publisher.
func (p *AMQPPublisher) Close() error { return p.conn.Close() }
