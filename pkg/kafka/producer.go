// Package kafka publishes document lifecycle events.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"pdf-rag-go/internal/config"
	"pdf-rag-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// Lifecycle event types.
const (
	EventIndexed = "document.indexed"
	EventDeleted = "document.deleted"
)

// DocumentEvent announces a completed lifecycle transition. Consumers use it
// for audit trails and cache invalidation; publishing is best-effort and
// never blocks the transition that emitted it.
type DocumentEvent struct {
	Type      string    `json:"type"`
	PDFID     uint      `json:"pdf_id"`
	Filename  string    `json:"filename"`
	Segments  int       `json:"segments,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher is implemented by the Kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, event DocumentEvent) error
}

// Producer writes lifecycle events to a single topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates the topic writer.
func NewProducer(cfg config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka producer initialized successfully")
	return &Producer{writer: writer}
}

// Publish sends one event.
func (p *Producer) Publish(ctx context.Context, event DocumentEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Value: eventBytes})
}

// Close shuts the underlying writer down.
func (p *Producer) Close() error {
	return p.writer.Close()
}
