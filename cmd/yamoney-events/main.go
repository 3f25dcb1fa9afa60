// Package main читает события оплаты шлюза из Kafka и пишет их в лог.
//
// Используется для проверки outbox локально и в docker-compose:
//   - KAFKA_BROKERS брокеры (например, "localhost:19092" или "kafka:9092")
//   - KAFKA_TOPIC_PAYMENT_SUCCESS / KAFKA_TOPIC_PAYMENT_FAIL топики событий
//   - KAFKA_GROUP_ID consumer group, по умолчанию yamoney-events
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	platformkafka "github.com/shestoi/yamoney-gateway/platform/kafka"
	platformlogging "github.com/shestoi/yamoney-gateway/platform/logging"
	platformshutdown "github.com/shestoi/yamoney-gateway/platform/shutdown"

	eventkafka "github.com/shestoi/yamoney-gateway/internal/event/kafka"
	"github.com/shestoi/yamoney-gateway/internal/service"
)

func main() {
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: "yamoney-events",
		Env:         "local",
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      "console",
		AddCaller:   true,
	})
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer platformlogging.Sync(logger)

	cfg, err := platformkafka.LoadEnv()
	if err != nil {
		logger.Fatal("Failed to load Kafka config", zap.Error(err))
	}
	if !cfg.Enabled() {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "yamoney-events"
	}

	logger.Info("Kafka config loaded",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("success_topic", cfg.SuccessTopic),
		zap.String("fail_topic", cfg.FailTopic),
		zap.String("group_id", groupID),
	)

	reader := eventkafka.NewReader(cfg.Brokers, groupID, cfg.SuccessTopic, cfg.FailTopic)
	consumer := eventkafka.NewPaymentEventConsumer(logger, reader, func(ctx context.Context, event service.PaymentEvent) error {
		logger.Info("Payment event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("ymid", event.YMID),
			zap.String("order_id", event.OrderID),
			zap.String("amount", event.Amount),
			zap.String("status", event.Status),
			zap.String("occurred_at", event.OccurredAt),
		)
		return nil
	}, 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	shutdownMgr := platformshutdown.New(5*time.Second, logger)
	shutdownMgr.Add("reader", platformshutdown.Close(consumer))
	shutdownMgr.Add("consumer", func(ctx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil {
			logger.Error("Consumer stopped", zap.Error(err))
		}
	}()

	shutdownMgr.Wait()
}
