//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shestoi/yamoney-gateway/internal/repository"
)

func TestRepository_Integration(t *testing.T) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("yamoney"),
		postgres.WithUsername("yamoney_user"),
		postgres.WithPassword("yamoney_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, postgresContainer.Terminate(ctx))
	}()

	dsn, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, dsn), "Failed to run migrations")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepository(pool)

	newTx := func(status repository.Status) repository.Transaction {
		return repository.Transaction{
			YMID:    uuid.NewString(),
			UID:     gofakeit.Numerify("####"),
			OrderID: gofakeit.Numerify("order-######"),
			Amount:  decimal.RequireFromString("1499.90"),
			Status:  status,
			Mail:    gofakeit.Email(),
			Data:    map[string]string{"cart_id": gofakeit.UUID()},
		}
	}

	t.Run("Create and GetByYMID", func(t *testing.T) {
		in := newTx(repository.StatusInProcess)

		created, err := repo.Create(ctx, in)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.False(t, created.CreatedAt.IsZero())

		got, err := repo.GetByYMID(ctx, in.YMID)
		require.NoError(t, err)
		require.Equal(t, in.OrderID, got.OrderID)
		require.Equal(t, in.Mail, got.Mail)
		require.Equal(t, "1499.90", got.Amount.StringFixed(2))
		require.Equal(t, in.Data, got.Data)

		_, err = repo.Create(ctx, in)
		require.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("GetByYMID not found", func(t *testing.T) {
		_, err := repo.GetByYMID(ctx, "missing")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("TransitionStatus writes outbox once", func(t *testing.T) {
		in := newTx(repository.StatusProcessed)
		_, err := repo.Create(ctx, in)
		require.NoError(t, err)

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			winners   int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.TransitionStatus(ctx, repository.TransitionInput{
					YMID: in.YMID,
					From: []repository.Status{repository.StatusProcessed},
					To:   repository.StatusPayed,
					Event: &repository.OutboxEvent{
						EventID:     uuid.NewString(),
						AggregateID: in.YMID,
						Topic:       "yamoney.success",
						Payload:     []byte(`{"ymid":"` + in.YMID + `"}`),
					},
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winners++
				} else if err == repository.ErrStatusConflict {
					conflicts++
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, winners)
		require.Equal(t, workers-1, conflicts)

		events, err := repo.GetPendingOutboxEvents(ctx, 100)
		require.NoError(t, err)
		var forTx []repository.OutboxEvent
		for _, ev := range events {
			if ev.AggregateID == in.YMID {
				forTx = append(forTx, ev)
			}
		}
		require.Len(t, forTx, 1)

		ev := forTx[0]
		require.NoError(t, repo.MarkOutboxEventFailed(ctx, ev.EventID, "broker unavailable"))
		require.NoError(t, repo.ResetOutboxEventPending(ctx, ev.EventID))
		require.NoError(t, repo.MarkOutboxEventSent(ctx, ev.EventID))
		require.ErrorIs(t, repo.MarkOutboxEventSent(ctx, uuid.NewString()), repository.ErrEventNotFound)
	})

	t.Run("TransitionStatus not found", func(t *testing.T) {
		_, err := repo.TransitionStatus(ctx, repository.TransitionInput{
			YMID: "missing",
			From: []repository.Status{repository.StatusProcessed},
			To:   repository.StatusPayed,
		})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("List filters", func(t *testing.T) {
		failed := newTx(repository.StatusInProcess)
		_, err := repo.Create(ctx, failed)
		require.NoError(t, err)
		_, err = repo.TransitionStatus(ctx, repository.TransitionInput{
			YMID: failed.YMID,
			From: []repository.Status{repository.StatusInProcess, repository.StatusProcessed},
			To:   repository.StatusFailed,
		})
		require.NoError(t, err)

		got, err := repo.List(ctx, repository.ListFilter{OrderID: failed.OrderID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, repository.StatusFailed, got[0].Status)

		page, err := repo.List(ctx, repository.ListFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.Greater(t, page[0].ID, page[1].ID)
	})
}
