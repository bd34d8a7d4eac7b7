package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
	"github.com/Domenicogestionale/gestionale-domenico/internal/service"
)

// Inventory is the slice of the service the scan stream needs.
type Inventory interface {
	FindByBarcode(ctx context.Context, code string) (*domain.Product, error)
	AdjustQuantity(ctx context.Context, code string, magnitude int, direction domain.AdjustDirection) (*domain.QuantityAdjustmentResponse, error)
}

// StockNotifier publishes the outcome of applied scans.
type StockNotifier interface {
	PublishStockAdjusted(result domain.QuantityAdjustmentResponse) error
	PublishScanFailed(deviceID, barcode, operation, reason string) error
}

// ScanConsumer reads decoded barcodes from the scan topic and routes
// them through the inventory service: lookups warm the cache, loads and
// unloads adjust stock. Rejected scans are reported back through the
// notifier and committed; store outages leave the message uncommitted so
// it is retried.
type ScanConsumer struct {
	reader    *kafka.Reader
	inventory Inventory
	notifier  StockNotifier
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewScanConsumer(brokers string, topic string, groupID string, inventory Inventory, logger *zap.Logger) *ScanConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{brokers},
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0, // explicit commits only
	})

	ctx, cancel := context.WithCancel(context.Background())

	return &ScanConsumer{
		reader:    reader,
		inventory: inventory,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// SetNotifier wires the outcome producer; optional.
func (sc *ScanConsumer) SetNotifier(n StockNotifier) {
	sc.notifier = n
}

func (sc *ScanConsumer) Start() {
	sc.logger.Info("scan consumer started",
		zap.String("topic", sc.reader.Config().Topic),
		zap.String("group_id", sc.reader.Config().GroupID))

	go sc.consume()
}

func (sc *ScanConsumer) consume() {
	defer close(sc.done)
	defer sc.reader.Close()

	for {
		msg, err := sc.reader.FetchMessage(sc.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				sc.logger.Info("scan consumer stopped")
				return
			}
			sc.logger.Error("error reading message", zap.Error(err))
			continue
		}

		if err := sc.ProcessMessage(sc.ctx, msg.Value); err != nil {
			sc.logger.Error("error processing scan",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
			continue
		}

		if err := sc.reader.CommitMessages(sc.ctx, msg); err != nil {
			sc.logger.Error("error committing message", zap.Error(err))
		}
	}
}

// ProcessMessage applies one scan event. A returned error means the
// message must not be committed; malformed or rejected scans return nil
// after being logged and reported.
func (sc *ScanConsumer) ProcessMessage(ctx context.Context, value []byte) error {
	var event ScanEvent
	if err := json.Unmarshal(value, &event); err != nil {
		sc.logger.Warn("skipping malformed scan event", zap.Error(err))
		return nil
	}

	code := domain.NormalizeBarcode(event.Barcode)
	if code == "" {
		sc.logger.Warn("skipping scan with empty barcode",
			zap.String("event_id", event.EventID),
			zap.String("device_id", event.DeviceID))
		return nil
	}

	sc.logger.Info("processing scan",
		zap.String("event_id", event.EventID),
		zap.String("device_id", event.DeviceID),
		zap.String("barcode", code),
		zap.String("operation", event.Operation))

	switch event.Operation {
	case OpLookup, "":
		return sc.handleLookup(ctx, event, code)
	case OpLoad:
		return sc.handleAdjust(ctx, event, code, domain.DirectionIncrease)
	case OpUnload:
		return sc.handleAdjust(ctx, event, code, domain.DirectionDecrease)
	default:
		sc.logger.Warn("skipping scan with unknown operation",
			zap.String("event_id", event.EventID),
			zap.String("operation", event.Operation))
		return nil
	}
}

func (sc *ScanConsumer) handleLookup(ctx context.Context, event ScanEvent, code string) error {
	product, err := sc.inventory.FindByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			sc.logger.Info("scanned barcode unknown", zap.String("barcode", code))
			sc.reportFailure(event, code, "product_not_found")
			return nil
		}
		return fmt.Errorf("lookup for scanned barcode %s: %w", code, err)
	}

	sc.logger.Info("scanned barcode resolved",
		zap.String("barcode", code),
		zap.String("product_id", product.ID),
		zap.Int("quantity", product.Quantity))
	return nil
}

func (sc *ScanConsumer) handleAdjust(ctx context.Context, event ScanEvent, code string, direction domain.AdjustDirection) error {
	result, err := sc.inventory.AdjustQuantity(ctx, code, event.Quantity, direction)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			sc.reportFailure(event, code, "product_not_found")
			return nil
		case errors.Is(err, service.ErrInsufficientStock):
			sc.reportFailure(event, code, "insufficient_stock")
			return nil
		default:
			return fmt.Errorf("adjust for scanned barcode %s: %w", code, err)
		}
	}

	if sc.notifier != nil {
		if err := sc.notifier.PublishStockAdjusted(*result); err != nil {
			sc.logger.Error("failed to publish stock adjusted event", zap.Error(err))
		}
	}
	return nil
}

func (sc *ScanConsumer) reportFailure(event ScanEvent, code, reason string) {
	if sc.notifier == nil {
		return
	}
	if err := sc.notifier.PublishScanFailed(event.DeviceID, code, event.Operation, reason); err != nil {
		sc.logger.Error("failed to publish scan failed event", zap.Error(err))
	}
}

// Stop cancels the consume loop and waits for it to drain.
func (sc *ScanConsumer) Stop() {
	sc.logger.Info("stopping scan consumer")
	sc.cancel()
	<-sc.done
}
