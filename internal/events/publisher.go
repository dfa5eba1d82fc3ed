package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/byterize/byterize-backend/internal/config"
	"github.com/byterize/byterize-backend/internal/models"
)

var (
	_ OrderEventPublisher = (*KafkaPublisher)(nil)
	_ OrderEventPublisher = (*RecordedPublisher)(nil)
	_ OrderEventPublisher = (NoopPublisher{})
)

// EventType represents the type of order event.
type EventType string

const EventTypeOrderCreated EventType = "order.created"

// OrderEvent is the envelope written to the orders topic.
type OrderEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	OrderID   string          `json:"order_id"`
	UserEmail string          `json:"user_email"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderEventPublisher emits order lifecycle events. Publishing is
// best-effort from the caller's point of view; failures never fail the
// order.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	Close() error
}

// KafkaPublisher publishes order events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger.With("component", "event-publisher"),
	}
}

// PublishOrderCreated publishes an order created event keyed by order id.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	event := &OrderEvent{
		ID:        "evt_" + uuid.NewString(),
		Type:      EventTypeOrderCreated,
		OrderID:   order.ID,
		UserEmail: order.UserEmail,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", "event_id", event.ID, "order_id", event.OrderID, "error", err)
		return err
	}

	p.logger.Info("Event published", "event_id", event.ID, "event_type", event.Type, "order_id", event.OrderID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// RecordedPublisher collects events in memory for tests.
type RecordedPublisher struct {
	mu     sync.Mutex
	events []*OrderEvent
}

func NewRecordedPublisher() *RecordedPublisher {
	return &RecordedPublisher{}
}

func (m *RecordedPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, &OrderEvent{
		Type:      EventTypeOrderCreated,
		OrderID:   order.ID,
		UserEmail: order.UserEmail,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// Events returns a snapshot of everything published so far.
func (m *RecordedPublisher) Events() []*OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OrderEvent(nil), m.events...)
}

func (m *RecordedPublisher) Close() error { return nil }

// NoopPublisher satisfies OrderEventPublisher when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
