package postgres

import (
	"context"
	"fmt"

	"github.com/shestoi/yamoney-gateway/internal/repository"
)

// GetPendingOutboxEvents возвращает pending события в порядке записи
func (r *Repository) GetPendingOutboxEvents(ctx context.Context, limit int) ([]repository.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_id::text, aggregate_id, topic, payload, status, attempts, last_error, created_at
		 FROM yamoney_outbox_events
		 WHERE status = $1
		 ORDER BY created_at
		 LIMIT $2`,
		string(repository.OutboxPending), limit)
	if err != nil {
		return nil, fmt.Errorf("select pending outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]repository.OutboxEvent, 0)
	for rows.Next() {
		var (
			ev     repository.OutboxEvent
			status string
		)
		if err := rows.Scan(&ev.EventID, &ev.AggregateID, &ev.Topic, &ev.Payload, &status, &ev.Attempts, &ev.LastError, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		ev.Status = repository.OutboxStatus(status)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select pending outbox events: %w", err)
	}
	return events, nil
}

// MarkOutboxEventSent отмечает событие отправленным
func (r *Repository) MarkOutboxEventSent(ctx context.Context, eventID string) error {
	return r.execEvent(ctx,
		`UPDATE yamoney_outbox_events SET status = $2, updated_at = now() WHERE event_id = $1`,
		eventID, string(repository.OutboxSent))
}

// MarkOutboxEventFailed отмечает событие неотправленным, увеличивает attempts и сохраняет ошибку
func (r *Repository) MarkOutboxEventFailed(ctx context.Context, eventID string, errMsg string) error {
	return r.execEvent(ctx,
		`UPDATE yamoney_outbox_events
		 SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = now()
		 WHERE event_id = $1`,
		eventID, string(repository.OutboxFailed), errMsg)
}

// ResetOutboxEventPending возвращает событие в pending для следующего цикла dispatcher
func (r *Repository) ResetOutboxEventPending(ctx context.Context, eventID string) error {
	return r.execEvent(ctx,
		`UPDATE yamoney_outbox_events SET status = $2, updated_at = now() WHERE event_id = $1`,
		eventID, string(repository.OutboxPending))
}

func (r *Repository) execEvent(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update outbox event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrEventNotFound
	}
	return nil
}
