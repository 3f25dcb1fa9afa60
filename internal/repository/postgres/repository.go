package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shestoi/yamoney-gateway/internal/repository"
)

const transactionColumns = "id, ymid, uid, order_id, amount::text, status, mail, data, created_at"

// Repository реализует TransactionRepository и OutboxRepository используя PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
}

// NewRepository создаёт новый PostgreSQL репозиторий
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
		// squirrel по умолчанию генерирует "?", pgx нужен $1, $2, ...
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create сохраняет новую транзакцию
func (r *Repository) Create(ctx context.Context, tx repository.Transaction) (repository.Transaction, error) {
	data, err := json.Marshal(nonNilData(tx.Data))
	if err != nil {
		return repository.Transaction{}, fmt.Errorf("marshal transaction data: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO yamoney_transactions (ymid, uid, order_id, amount, status, mail, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (ymid) DO NOTHING
		 RETURNING `+transactionColumns,
		tx.YMID, tx.UID, tx.OrderID, tx.Amount.String(), string(tx.Status), tx.Mail, data)

	created, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Transaction{}, repository.ErrAlreadyExists
		}
		return repository.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

// GetByYMID получает транзакцию по ymid
func (r *Repository) GetByYMID(ctx context.Context, ymid string) (repository.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM yamoney_transactions WHERE ymid = $1`, ymid)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Transaction{}, repository.ErrNotFound
		}
		return repository.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	return tx, nil
}

// TransitionStatus выполняет compare-and-set статуса и вставку outbox события
// в одной транзакции БД: событие появляется только у победителя гонки.
func (r *Repository) TransitionStatus(ctx context.Context, in repository.TransitionInput) (repository.Transaction, error) {
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return repository.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer dbTx.Rollback(ctx)

	from := make([]string, 0, len(in.From))
	for _, s := range in.From {
		from = append(from, string(s))
	}

	row := dbTx.QueryRow(ctx,
		`UPDATE yamoney_transactions
		 SET status = $1, updated_at = now()
		 WHERE ymid = $2 AND status = ANY($3)
		 RETURNING `+transactionColumns,
		string(in.To), in.YMID, from)

	tx, err := scanTransaction(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return repository.Transaction{}, fmt.Errorf("update transaction status: %w", err)
		}
		// строка не обновилась: либо её нет, либо статус уже другой
		var exists bool
		if err := dbTx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM yamoney_transactions WHERE ymid = $1)`, in.YMID).Scan(&exists); err != nil {
			return repository.Transaction{}, fmt.Errorf("check transaction: %w", err)
		}
		if !exists {
			return repository.Transaction{}, repository.ErrNotFound
		}
		return repository.Transaction{}, repository.ErrStatusConflict
	}

	if in.Event != nil {
		_, err = dbTx.Exec(ctx,
			`INSERT INTO yamoney_outbox_events (event_id, aggregate_id, topic, payload, status)
			 VALUES ($1, $2, $3, $4, $5)`,
			in.Event.EventID, in.Event.AggregateID, in.Event.Topic, in.Event.Payload, string(repository.OutboxPending))
		if err != nil {
			return repository.Transaction{}, fmt.Errorf("insert outbox event: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return repository.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return tx, nil
}

// List возвращает транзакции по фильтру, новые первыми
func (r *Repository) List(ctx context.Context, filter repository.ListFilter) ([]repository.Transaction, error) {
	query, args, err := buildListQuery(r.psql, filter)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]repository.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

func buildListQuery(psql sq.StatementBuilderType, filter repository.ListFilter) (string, []any, error) {
	q := psql.Select(transactionColumns).
		From("yamoney_transactions").
		OrderBy("id DESC")

	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.UID != "" {
		q = q.Where(sq.Eq{"uid": filter.UID})
	}
	if filter.OrderID != "" {
		q = q.Where(sq.Eq{"order_id": filter.OrderID})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q.ToSql()
}

func scanTransaction(row pgx.Row) (repository.Transaction, error) {
	var (
		tx        repository.Transaction
		amount    string
		status    string
		data      []byte
		createdAt time.Time
	)
	if err := row.Scan(&tx.ID, &tx.YMID, &tx.UID, &tx.OrderID, &amount, &status, &tx.Mail, &data, &createdAt); err != nil {
		return repository.Transaction{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return repository.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	tx.Amount = parsed
	tx.Status = repository.Status(status)
	tx.CreatedAt = createdAt.UTC()

	if len(data) > 0 {
		if err := json.Unmarshal(data, &tx.Data); err != nil {
			return repository.Transaction{}, fmt.Errorf("unmarshal transaction data: %w", err)
		}
	}
	return tx, nil
}

func nonNilData(data map[string]string) map[string]string {
	if data == nil {
		return map[string]string{}
	}
	return data
}
