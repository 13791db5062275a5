package eventpkg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/go-petr/pet-finance/internal/domain"
)

// kafkaBatchTimeout bounds how long a single event waits for its batch to fill.
const kafkaBatchTimeout = 10 * time.Millisecond

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ledger events to a Kafka topic.
//
// Messages are keyed by user id so the events of one account keep their order.
type KafkaPublisher struct {
	writer kafkaWriter
}

// NewKafkaPublisher returns a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           kafkaBatchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish sends the event as JSON.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(int64(event.UserID), 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
