package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status статус платёжной транзакции
type Status string

const (
	StatusInProcess Status = "in_process"
	StatusProcessed Status = "processed"
	StatusPayed     Status = "payed"
	StatusFailed    Status = "failed"
)

// CanTransitionTo сообщает, допустим ли переход в next.
// Статус движется только вперёд: in_process -> processed -> payed,
// in_process|processed -> failed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusInProcess:
		return next == StatusProcessed || next == StatusFailed
	case StatusProcessed:
		return next == StatusPayed || next == StatusFailed
	default:
		return false
	}
}

// Valid сообщает, известен ли статус
func (s Status) Valid() bool {
	switch s {
	case StatusInProcess, StatusProcessed, StatusPayed, StatusFailed:
		return true
	}
	return false
}

// Transaction доменная модель платёжной транзакции Яндекс.Денег.
// Сумма после создания не меняется.
type Transaction struct {
	ID        int64
	YMID      string
	UID       string
	OrderID   string
	Amount    decimal.Decimal
	Status    Status
	Mail      string
	CreatedAt time.Time
	// Data произвольные данные магазина, сервис их не интерпретирует
	Data map[string]string
}

// OutboxStatus статус события в outbox
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEvent событие, записанное в той же транзакции БД, что и смена статуса
type OutboxEvent struct {
	EventID     string
	AggregateID string // ymid
	Topic       string
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
}

// TransitionInput описывает атомарный переход статуса (compare-and-set).
// Переход выполняется только если текущий статус входит в From.
// Event, если задан, сохраняется в outbox вместе с переходом.
type TransitionInput struct {
	YMID  string
	From  []Status
	To    Status
	Event *OutboxEvent
}

// ListFilter фильтр выборки транзакций; пустые поля не ограничивают выборку
type ListFilter struct {
	Status  Status
	UID     string
	OrderID string
	Limit   uint64
	Offset  uint64
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=TransactionRepository --dir=. --output=./mocks --outpkg=mocks

// TransactionRepository хранилище транзакций
type TransactionRepository interface {
	// Create сохраняет новую транзакцию и возвращает её с ID и CreatedAt
	Create(ctx context.Context, tx Transaction) (Transaction, error)

	// GetByYMID возвращает ErrNotFound, если транзакции нет
	GetByYMID(ctx context.Context, ymid string) (Transaction, error)

	// TransitionStatus возвращает ErrNotFound или ErrStatusConflict,
	// если текущий статус не входит в in.From
	TransitionStatus(ctx context.Context, in TransitionInput) (Transaction, error)

	List(ctx context.Context, filter ListFilter) ([]Transaction, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OutboxRepository --dir=. --output=./mocks --outpkg=mocks

// OutboxRepository доступ к outbox для dispatcher
type OutboxRepository interface {
	GetPendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxEventSent(ctx context.Context, eventID string) error
	MarkOutboxEventFailed(ctx context.Context, eventID string, errMsg string) error
	ResetOutboxEventPending(ctx context.Context, eventID string) error
}

var (
	// ErrNotFound возвращается, когда транзакция не найдена
	ErrNotFound = errors.New("transaction not found")
	// ErrStatusConflict возвращается, когда статус транзакции уже изменился
	ErrStatusConflict = errors.New("transaction status conflict")
	// ErrAlreadyExists возвращается при повторном ymid
	ErrAlreadyExists = errors.New("transaction already exists")
	// ErrEventNotFound возвращается, когда событие outbox не найдено
	ErrEventNotFound = errors.New("outbox event not found")
)
