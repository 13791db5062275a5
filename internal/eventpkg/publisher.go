// Package eventpkg delivers committed ledger events to a message broker.
package eventpkg

import (
	"context"
	"fmt"

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/pkg/configpkg"
)

// Publisher sends ledger events and releases its broker resources on Close.
type Publisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, domain.LedgerEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// New returns the publisher selected by config.EventsDriver.
func New(config configpkg.Config) (Publisher, error) {
	switch config.EventsDriver {
	case configpkg.EventsDriverNone, "":
		return NopPublisher{}, nil
	case configpkg.EventsDriverKafka:
		return NewKafkaPublisher(config.Brokers(), config.KafkaTopic), nil
	case configpkg.EventsDriverAMQP:
		p, err := DialAMQPPublisher(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			return nil, err
		}

		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", config.EventsDriver)
	}
}
