package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher is the minimal surface the Orchestrator needs to announce
// ingestion completion to other services. Adapted from the teacher's
// storage.RabbitMQ, trimmed to the one exchange/queue this service needs.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// RabbitMQPublisher publishes ingestion lifecycle events to a single durable
// topic exchange. One channel, mutex-guarded, rather than the teacher's
// pooled channels — this service's publish volume is one message per
// completed/failed ingestion, far below where pooling would matter.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       sync.Mutex
	exchange string
}

const ingestionExchange = "resumatch.ingestion.events"

// NewRabbitMQPublisher dials url and declares the ingestion events exchange.
func NewRabbitMQPublisher(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("ingest: dialing rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ingest: opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ingestionExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("ingest: declaring exchange: %w", err)
	}
	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: ingestionExchange}, nil
}

// Publish marshals event as JSON and publishes it under routingKey (e.g.
// "document.completed", "document.failed").
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ingest: marshaling event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	})
}

// Close tears down the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher discards every event. Used when RabbitMQ isn't configured
// (e.g. resumatchctl one-off ingestion) rather than threading a nil check
// through the orchestrator.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// IngestionEvent is the payload published on both success and failure.
type IngestionEvent struct {
	DocumentID      string `json:"document_id"`
	FileID          string `json:"file_id"`
	FileType        string `json:"file_type"`
	EmbeddingStatus string `json:"embedding_status"`
	ChunkCount      int    `json:"chunk_count,omitempty"`
	Error           string `json:"error,omitempty"`
}
