package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type Event struct {
	EventID   string             `json:"eventId"`
	Type      string             `json:"type"`
	OrderID   int64              `json:"orderId"`
	UserID    int64              `json:"userId"`
	Status    models.OrderStatus `json:"status"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"createdAt"`
}

func NewOrderEvent(eventType string, order *models.Order) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrderID:   order.OrderID,
		UserID:    order.UserID,
		Status:    order.Status,
		Total:     order.Total,
		CreatedAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const publishBatchTimeout = 10 * time.Millisecond

type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger
}

// NewPublisher returns a Kafka-backed publisher, or a no-op one when
// brokersCSV names no brokers.
func NewPublisher(brokersCSV, topic string, log *zap.Logger) Publisher {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		log.Info("kafka disabled, order events will not be published")
		return NopPublisher{}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			// Publish runs inline with the request, one message at a time.
			BatchTimeout: publishBatchTimeout,
		},
		log: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: data,
		Time:  event.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.log.Debug("event published", zap.String("type", event.Type), zap.Int64("order_id", event.OrderID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

func splitBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
