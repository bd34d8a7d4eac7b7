package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
)

type StockProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewStockProducer(brokers string, topic string, logger *zap.Logger) *StockProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &StockProducer{
		writer: writer,
		logger: logger,
	}
}

func (p *StockProducer) PublishStockAdjusted(result domain.QuantityAdjustmentResponse) error {
	event := StockAdjustedEvent{
		EventID:          uuid.NewString(),
		ProductID:        result.ProductID,
		Barcode:          result.Barcode,
		Direction:        string(result.Direction),
		Adjusted:         result.Adjusted,
		PreviousQuantity: result.PreviousQuantity,
		NewQuantity:      result.NewQuantity,
		Timestamp:        time.Now().UTC(),
	}

	return p.publish(event.EventID, event)
}

func (p *StockProducer) PublishScanFailed(deviceID, barcode, operation, reason string) error {
	event := ScanFailedEvent{
		EventID:   uuid.NewString(),
		DeviceID:  deviceID,
		Barcode:   barcode,
		Operation: operation,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}

	return p.publish(event.EventID, event)
}

func (p *StockProducer) publish(key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_id", key),
			zap.Error(err))
		return err
	}

	p.logger.Info("event published", zap.String("event_id", key))
	return nil
}

func (p *StockProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
