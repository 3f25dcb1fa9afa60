package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/yamoney-gateway/internal/service"
)

// MessageReader часть kafka.Reader, нужная consumer
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentEventHandler обрабатывает событие оплаты; ошибка запускает повтор
type PaymentEventHandler func(ctx context.Context, event service.PaymentEvent) error

// NewReader создаёт kafka.Reader группы groupID на топики событий оплаты
func NewReader(brokers []string, groupID string, topics ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}

// PaymentEventConsumer читает yamoney.success / yamoney.fail.
// At-least-once: offset коммитится после обработки или для непарсящегося сообщения.
type PaymentEventConsumer struct {
	logger      *zap.Logger
	reader      MessageReader
	handler     PaymentEventHandler
	maxAttempts int
	backoffBase time.Duration
}

// NewPaymentEventConsumer создаёт consumer
func NewPaymentEventConsumer(logger *zap.Logger, reader MessageReader, handler PaymentEventHandler, maxAttempts int, backoffBase time.Duration) *PaymentEventConsumer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &PaymentEventConsumer{
		logger:      logger,
		reader:      reader,
		handler:     handler,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Start читает сообщения до отмены ctx
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting payment event consumer", zap.Int("max_attempts", c.maxAttempts))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message from kafka", zap.Error(err))
			select {
			case <-ctx.Done():
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			case <-time.After(c.backoffBase):
			}
			continue
		}

		if !c.processMessage(ctx, m) {
			continue
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("failed to commit message offset",
				zap.Error(err),
				zap.String("topic", m.Topic),
				zap.Int64("offset", m.Offset),
			)
		}
	}
}

// processMessage возвращает true, если offset нужно закоммитить
func (c *PaymentEventConsumer) processMessage(ctx context.Context, m kafka.Message) bool {
	log := c.logger.With(
		zap.String("topic", m.Topic),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)

	event, err := decodePaymentEvent(m.Value)
	if err != nil {
		// poison pill
		log.Error("failed to decode payment event", zap.Error(err))
		return true
	}
	log = log.With(zap.String("event_id", event.EventID), zap.String("ymid", event.YMID))

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.handler(ctx, event)
		if err == nil {
			return true
		}
		log.Warn("payment event handler failed", zap.Error(err), zap.Int("attempt", attempt))

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(c.backoffBase * time.Duration(attempt)):
			}
		}
	}

	log.Error("payment event dropped after retries", zap.Error(err))
	return true
}

// Close закрывает reader
func (c *PaymentEventConsumer) Close() error {
	return c.reader.Close()
}

func decodePaymentEvent(value []byte) (service.PaymentEvent, error) {
	var event service.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return service.PaymentEvent{}, err
	}
	if event.EventID == "" || event.YMID == "" {
		return service.PaymentEvent{}, fmt.Errorf("event_id and ymid are required")
	}
	return event, nil
}
