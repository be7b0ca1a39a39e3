// Package events publishes dataset lifecycle events to external consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"campuspulse/internal/config"
	"campuspulse/internal/infrastructure"
	"campuspulse/pkg/contracts/domain"
)

const exchangeKind = "topic"

// Channel is the part of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends a message to a RabbitMQ exchange each time the working
// dataset is replaced. It implements the dataset listener contract.
type Publisher struct {
	conn       *amqp.Connection
	ch         Channel
	exchange   string
	routingKey string
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Dial connects to the broker, opens a channel and declares the exchange.
func Dial(cfg config.AMQPConfig, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	p, err := NewPublisher(ch, cfg, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an open channel and declares the exchange on it
func NewPublisher(ch Channel, cfg config.AMQPConfig, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		exchangeKind, // kind
		true,         // durable
		false,        // auto-delete
		false,        // internal
		false,        // no-wait
		nil,          // args
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", cfg.Exchange, err)
	}

	return &Publisher{
		ch:         ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With(slog.String("component", "amqp_publisher")),
	}, nil
}

// OnDatasetReplaced publishes the event as a persistent JSON message
func (p *Publisher) OnDatasetReplaced(ctx context.Context, event domain.DatasetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("amqp publisher closed")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode dataset event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.DatasetID,
		CorrelationId: infrastructure.GetTraceID(ctx),
		Timestamp:     event.Timestamp,
		Type:          event.Type,
		Body:          body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", p.exchange, p.routingKey, err)
	}

	p.logger.DebugContext(ctx, "Dataset event published",
		slog.String("dataset_id", event.DatasetID),
		slog.String("exchange", p.exchange),
		slog.String("routing_key", p.routingKey))
	return nil
}

// Close closes the channel and, when the publisher dialed it, the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.ch.Close()
	if p.conn != nil && !p.conn.IsClosed() {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
