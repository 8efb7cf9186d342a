// Package events publishes marketplace notifications to Kafka. Delivery
// is fire-and-forget: a failed publish is logged and never fails the
// operation that triggered it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
)

const publishTimeout = 10 * time.Second

type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

func (p *Producer) OrderCreated(order *domain.Order) {
	event := OrderCreatedEvent{
		EventID:   uuid.NewString(),
		Type:      TypeOrderCreated,
		OrderID:   order.OrderID,
		UserID:    order.UserID,
		SellerID:  order.SellerID,
		Items:     order.Items,
		Total:     order.Total(),
		Timestamp: time.Now().UTC(),
	}
	p.publish(event.EventID, order.OrderID, event)
}

func (p *Producer) StockLow(productID string, remaining int) {
	event := StockLowEvent{
		EventID:   uuid.NewString(),
		Type:      TypeStockLow,
		ProductID: productID,
		Remaining: remaining,
		Timestamp: time.Now().UTC(),
	}
	p.publish(event.EventID, productID, event)
}

func (p *Producer) publish(eventID, key string, event any) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return
	}

	p.logger.Info("Event published",
		zap.String("event_id", eventID),
		zap.String("key", key))
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
