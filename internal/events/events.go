// Package events publishes order lifecycle notifications. Publishing is
// optional: without brokers every event is dropped.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Yusei-0/cuba-click/internal/models"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type Event struct {
	EventID      string         `json:"event_id"`
	Type         string         `json:"type"`
	OrderID      string         `json:"order_id"`
	TrackingCode string         `json:"tracking_code,omitempty"`
	Status       string         `json:"status,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Payload      map[string]any `json:"payload,omitempty"`
}

func NewOrderEvent(eventType string, order models.Order) Event {
	return Event{
		EventID:      uuid.NewString(),
		Type:         eventType,
		OrderID:      order.ID.Hex(),
		TrackingCode: order.TrackingCode,
		Status:       string(order.Status),
		CreatedAt:    time.Now().UTC(),
		Payload: map[string]any{
			"providerId":      order.ProviderID.Hex(),
			"currency":        order.Currency,
			"nativeCurrency":  order.NativeCurrency,
			"productSubtotal": order.ProductSubtotal,
			"shippingCost":    order.ShippingCost,
		},
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

const (
	defaultWriteTimeout = 5 * time.Second
	batchTimeout        = 10 * time.Millisecond
)

type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewPublisher returns a Kafka publisher for a comma separated broker list,
// or Noop when the list is empty. writeTimeout bounds each Publish.
func NewPublisher(brokersCSV, topic string, writeTimeout time.Duration) Publisher {
	brokers := parseBrokers(brokersCSV)
	if len(brokers) == 0 {
		return Noop{}
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: batchTimeout,
			WriteTimeout: writeTimeout,
		},
		timeout: writeTimeout,
	}
}

// writeContext keeps the caller's values but not its cancellation: the order
// is already committed when an event is published.
func (p *KafkaPublisher) writeContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), p.timeout)
}

// Publish keys messages by order id so one order's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := p.writeContext(ctx)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func parseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
