package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

const (
	eventTypePaymentSucceeded = "yamoney.payment.succeeded"
	eventTypePaymentFailed    = "yamoney.payment.failed"
	eventVersion              = 1
)

// PaymentEvent payload событий yamoney.success / yamoney.fail
type PaymentEvent struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	EventVersion int    `json:"event_version"`
	OccurredAt   string `json:"occurred_at"`
	YMID         string `json:"ymid"`
	OrderID      string `json:"order_id"`
	UID          string `json:"uid"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
}

// newPaymentEvent собирает outbox событие для транзакции, которая переходит в status
func newPaymentEvent(topic, eventType string, tx repository.Transaction, status repository.Status, now time.Time) (*repository.OutboxEvent, error) {
	eventID := uuid.NewString()

	payload, err := json.Marshal(PaymentEvent{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: eventVersion,
		OccurredAt:   now.UTC().Format(time.RFC3339),
		YMID:         tx.YMID,
		OrderID:      tx.OrderID,
		UID:          tx.UID,
		Amount:       yamoney.FormatAmount(tx.Amount),
		Status:       string(status),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payment event: %w", err)
	}

	return &repository.OutboxEvent{
		EventID:     eventID,
		AggregateID: tx.YMID,
		Topic:       topic,
		Payload:     payload,
		CreatedAt:   now.UTC(),
	}, nil
}
