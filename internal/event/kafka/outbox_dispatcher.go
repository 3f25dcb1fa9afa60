package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shestoi/yamoney-gateway/internal/repository"
)

// MessageWriter часть kafka.Writer, нужная dispatcher
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DispatcherConfig параметры цикла публикации
type DispatcherConfig struct {
	// BatchSize сколько pending событий берётся за один проход
	BatchSize int
	// Interval пауза между проходами
	Interval time.Duration
	// MaxRetries попыток публикации одного события за проход
	MaxRetries int
	// Backoff базовая пауза между попытками, растёт линейно
	Backoff time.Duration
}

// OutboxDispatcher публикует события оплаты из outbox в Kafka
type OutboxDispatcher struct {
	logger *zap.Logger
	repo   repository.OutboxRepository
	writer MessageWriter
	cfg    DispatcherConfig
}

// NewWriter создаёт kafka.Writer; топик берётся из каждого сообщения
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewOutboxDispatcher создаёт dispatcher
func NewOutboxDispatcher(logger *zap.Logger, repo repository.OutboxRepository, writer MessageWriter, cfg DispatcherConfig) *OutboxDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &OutboxDispatcher{
		logger: logger,
		repo:   repo,
		writer: writer,
		cfg:    cfg,
	}
}

// Start обрабатывает outbox до отмены ctx
func (d *OutboxDispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting outbox dispatcher",
		zap.Int("batch_size", d.cfg.BatchSize),
		zap.Duration("interval", d.cfg.Interval),
		zap.Int("max_retries", d.cfg.MaxRetries),
	)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	if err := d.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
		d.logger.Error("failed to process initial batch", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return nil
		case <-ticker.C:
			if err := d.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("failed to process batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch публикует одну пачку pending событий.
// Ошибка отдельного события логируется и не прерывает пачку.
func (d *OutboxDispatcher) ProcessBatch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	events, err := d.repo.GetPendingOutboxEvents(ctx, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	d.logger.Debug("processing outbox batch", zap.Int("count", len(events)))

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.processEvent(ctx, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.Error("failed to process event",
				zap.Error(err),
				zap.String("event_id", event.EventID),
				zap.String("topic", event.Topic),
			)
		}
	}
	return nil
}

func (d *OutboxDispatcher) processEvent(ctx context.Context, event repository.OutboxEvent) error {
	msg := kafka.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID), // ymid: события одной транзакции в одной партиции
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		err := d.writer.WriteMessages(ctx, msg)
		if err == nil {
			if err := d.repo.MarkOutboxEventSent(ctx, event.EventID); err != nil {
				return fmt.Errorf("mark event sent: %w", err)
			}
			d.logger.Info("outbox event published",
				zap.String("event_id", event.EventID),
				zap.String("topic", event.Topic),
				zap.String("ymid", event.AggregateID),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		lastErr = err
		d.logger.Warn("failed to publish outbox event",
			zap.Error(err),
			zap.String("event_id", event.EventID),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", d.cfg.MaxRetries),
		)

		if attempt < d.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.cfg.Backoff * time.Duration(attempt)):
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	errMsg := fmt.Sprintf("failed after %d attempts: %v", d.cfg.MaxRetries, lastErr)
	if err := d.repo.MarkOutboxEventFailed(ctx, event.EventID, errMsg); err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	// событие остаётся в очереди на следующий проход
	if err := d.repo.ResetOutboxEventPending(ctx, event.EventID); err != nil {
		d.logger.Error("failed to reset event to pending", zap.Error(err), zap.String("event_id", event.EventID))
	}

	return fmt.Errorf("failed to publish event after %d attempts: %w", d.cfg.MaxRetries, lastErr)
}

// Close закрывает Kafka writer
func (d *OutboxDispatcher) Close() error {
	d.logger.Info("closing outbox dispatcher")
	return d.writer.Close()
}
