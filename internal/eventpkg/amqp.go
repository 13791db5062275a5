package eventpkg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-petr/pet-finance/internal/domain"
)

const publishTimeout = 5 * time.Second

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes ledger events to a direct exchange.
//
// The routing key is the event type.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// DialAMQPPublisher connects to the broker at url and declares exchange.
func DialAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newAMQPPublisher(channel, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	p.conn = conn

	return p, nil
}

func newAMQPPublisher(channel amqpChannel, exchange string) (*AMQPPublisher, error) {
	err := channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = channel.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Publish sends the event as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,         // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}

	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}
