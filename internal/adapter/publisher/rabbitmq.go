// Package publisher announces reconciled availability on RabbitMQ.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

const DefaultQueue = "availability.updated"

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AvailabilityMessage struct {
	EventID     string                          `json:"eventId"`
	EventName   string                          `json:"eventName"`
	Region      string                          `json:"region"`
	Totals      domain.Totals                   `json:"totals"`
	Incomplete  bool                            `json:"incomplete"`
	TicketTypes []domain.TicketTypeAvailability `json:"ticketTypes"`
	LastUpdated time.Time                       `json:"lastUpdated"`
}

type RabbitPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     Channel
	queue  string
	clock  clock.Clock
	logger *logrus.Logger
}

// Dial connects to the broker and declares queue as durable.
func Dial(url, queue string, clk clock.Clock, logger *logrus.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	p, err := NewRabbitPublisher(ch, queue, clk, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewRabbitPublisher(ch Channel, queue string, clk clock.Clock, logger *logrus.Logger) (*RabbitPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	if clk == nil {
		clk = clock.Real()
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq queue declare %s: %w", queue, err)
	}
	return &RabbitPublisher{ch: ch, queue: queue, clock: clk, logger: logger}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, availability domain.EventAvailability) error {
	body, err := json.Marshal(AvailabilityMessage{
		EventID:     availability.EventID,
		EventName:   availability.EventName,
		Region:      availability.Region,
		Totals:      availability.Totals,
		Incomplete:  availability.Scrape.Incomplete,
		TicketTypes: availability.TicketTypes,
		LastUpdated: availability.LastUpdated,
	})
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.clock.Now(),
		MessageId:    availability.EventID,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.logger.WithError(err).WithField("event_id", availability.EventID).Warn("rabbitmq publish failed")
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
