package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shestoi/yamoney-gateway/internal/repository"
)

// MemoryRepository реализует TransactionRepository и OutboxRepository в памяти.
// Используется для разработки и тестов (STORAGE=memory).
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byYMID map[string]repository.Transaction
	events []repository.OutboxEvent
	now    func() time.Time
}

// NewMemoryRepository создаёт новый in-memory репозиторий
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byYMID: make(map[string]repository.Transaction),
		now:    time.Now,
	}
}

// Create сохраняет транзакцию; ymid должен быть уникальным
func (r *MemoryRepository) Create(ctx context.Context, tx repository.Transaction) (repository.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byYMID[tx.YMID]; exists {
		return repository.Transaction{}, repository.ErrAlreadyExists
	}

	r.nextID++
	tx.ID = r.nextID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.now().UTC()
	}
	tx.Data = maps.Clone(tx.Data)

	r.byYMID[tx.YMID] = tx
	return clone(tx), nil
}

// GetByYMID получает транзакцию по ymid
func (r *MemoryRepository) GetByYMID(ctx context.Context, ymid string) (repository.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.byYMID[ymid]
	if !exists {
		return repository.Transaction{}, repository.ErrNotFound
	}
	return clone(tx), nil
}

// TransitionStatus меняет статус под мьютексом, событие добавляется в тот же момент
func (r *MemoryRepository) TransitionStatus(ctx context.Context, in repository.TransitionInput) (repository.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, exists := r.byYMID[in.YMID]
	if !exists {
		return repository.Transaction{}, repository.ErrNotFound
	}
	if !slices.Contains(in.From, tx.Status) {
		return repository.Transaction{}, repository.ErrStatusConflict
	}

	tx.Status = in.To
	r.byYMID[in.YMID] = tx

	if in.Event != nil {
		ev := *in.Event
		ev.Status = repository.OutboxPending
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = r.now().UTC()
		}
		r.events = append(r.events, ev)
	}

	return clone(tx), nil
}

// List возвращает транзакции по фильтру, новые первыми
func (r *MemoryRepository) List(ctx context.Context, filter repository.ListFilter) ([]repository.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]repository.Transaction, 0)
	for _, tx := range r.byYMID {
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if filter.UID != "" && tx.UID != filter.UID {
			continue
		}
		if filter.OrderID != "" && tx.OrderID != filter.OrderID {
			continue
		}
		result = append(result, clone(tx))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if filter.Offset >= uint64(len(result)) {
		return []repository.Transaction{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < uint64(len(result)) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetPendingOutboxEvents возвращает pending события в порядке записи
func (r *MemoryRepository) GetPendingOutboxEvents(ctx context.Context, limit int) ([]repository.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]repository.OutboxEvent, 0)
	for _, ev := range r.events {
		if ev.Status != repository.OutboxPending {
			continue
		}
		events = append(events, ev)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

// MarkOutboxEventSent отмечает событие отправленным
func (r *MemoryRepository) MarkOutboxEventSent(ctx context.Context, eventID string) error {
	return r.updateEvent(eventID, func(ev *repository.OutboxEvent) {
		ev.Status = repository.OutboxSent
	})
}

// MarkOutboxEventFailed отмечает событие неотправленным и запоминает ошибку
func (r *MemoryRepository) MarkOutboxEventFailed(ctx context.Context, eventID string, errMsg string) error {
	return r.updateEvent(eventID, func(ev *repository.OutboxEvent) {
		ev.Status = repository.OutboxFailed
		ev.Attempts++
		ev.LastError = errMsg
	})
}

// ResetOutboxEventPending возвращает событие в pending
func (r *MemoryRepository) ResetOutboxEventPending(ctx context.Context, eventID string) error {
	return r.updateEvent(eventID, func(ev *repository.OutboxEvent) {
		ev.Status = repository.OutboxPending
	})
}

// Events возвращает копию всех событий outbox
func (r *MemoryRepository) Events() []repository.OutboxEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events)
}

func (r *MemoryRepository) updateEvent(eventID string, fn func(ev *repository.OutboxEvent)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].EventID == eventID {
			fn(&r.events[i])
			return nil
		}
	}
	return repository.ErrEventNotFound
}

func clone(tx repository.Transaction) repository.Transaction {
	tx.Data = maps.Clone(tx.Data)
	return tx
}
