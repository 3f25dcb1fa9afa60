package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shestoi/yamoney-gateway/internal/repository"
)

func newTx(ymid, orderID string) repository.Transaction {
	return repository.Transaction{
		YMID:    ymid,
		UID:     "42",
		OrderID: orderID,
		Amount:  decimal.RequireFromString("150.50"),
		Status:  repository.StatusInProcess,
		Data:    map[string]string{"cart": "7"},
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, newTx("ym-1", "1001"))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByYMID(ctx, "ym-1")
	require.NoError(t, err)
	require.Equal(t, "1001", got.OrderID)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("150.5")))

	// изменения копии не попадают в хранилище
	got.Data["cart"] = "changed"
	again, err := repo.GetByYMID(ctx, "ym-1")
	require.NoError(t, err)
	require.Equal(t, "7", again.Data["cart"])

	_, err = repo.GetByYMID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Create(ctx, newTx("ym-1", "1002"))
	require.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestMemoryRepository_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_, err := repo.Create(ctx, newTx("ym-1", "1001"))
	require.NoError(t, err)

	_, err = repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID: "ym-1",
		From: []repository.Status{repository.StatusProcessed},
		To:   repository.StatusPayed,
	})
	require.ErrorIs(t, err, repository.ErrStatusConflict)

	tx, err := repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID: "ym-1",
		From: []repository.Status{repository.StatusInProcess},
		To:   repository.StatusProcessed,
	})
	require.NoError(t, err)
	require.Equal(t, repository.StatusProcessed, tx.Status)

	tx, err = repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID:  "ym-1",
		From:  []repository.Status{repository.StatusProcessed},
		To:    repository.StatusPayed,
		Event: &repository.OutboxEvent{EventID: "ev-1", AggregateID: "ym-1", Topic: "yamoney.success", Payload: []byte(`{}`)},
	})
	require.NoError(t, err)
	require.Equal(t, repository.StatusPayed, tx.Status)

	events := repo.Events()
	require.Len(t, events, 1)
	require.Equal(t, repository.OutboxPending, events[0].Status)

	_, err = repo.TransitionStatus(ctx, repository.TransitionInput{YMID: "nope", From: []repository.Status{repository.StatusProcessed}, To: repository.StatusPayed})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryRepository_TransitionStatusRace(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tx := newTx("ym-race", "1")
	tx.Status = repository.StatusProcessed
	_, err := repo.Create(ctx, tx)
	require.NoError(t, err)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TransitionStatus(ctx, repository.TransitionInput{
				YMID:  "ym-race",
				From:  []repository.Status{repository.StatusProcessed},
				To:    repository.StatusPayed,
				Event: &repository.OutboxEvent{EventID: "ev", Topic: "yamoney.success"},
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, winners)
	require.Len(t, repo.Events(), 1)
}

func TestMemoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for _, ymid := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, newTx(ymid, "order-"+ymid))
		require.NoError(t, err)
	}
	_, err := repo.TransitionStatus(ctx, repository.TransitionInput{YMID: "b", From: []repository.Status{repository.StatusInProcess}, To: repository.StatusFailed})
	require.NoError(t, err)

	all, err := repo.List(ctx, repository.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c", all[0].YMID)

	failed, err := repo.List(ctx, repository.ListFilter{Status: repository.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "b", failed[0].YMID)

	page, err := repo.List(ctx, repository.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "b", page[0].YMID)

	empty, err := repo.List(ctx, repository.ListFilter{Offset: 10})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryRepository_Outbox(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tx := newTx("ym-1", "1")
	tx.Status = repository.StatusProcessed
	_, err := repo.Create(ctx, tx)
	require.NoError(t, err)
	_, err = repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID:  "ym-1",
		From:  []repository.Status{repository.StatusProcessed},
		To:    repository.StatusPayed,
		Event: &repository.OutboxEvent{EventID: "ev-1", Topic: "yamoney.success"},
	})
	require.NoError(t, err)

	pending, err := repo.GetPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkOutboxEventFailed(ctx, "ev-1", "broker down"))
	pending, err = repo.GetPendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
	require.Equal(t, 1, repo.Events()[0].Attempts)
	require.Equal(t, "broker down", repo.Events()[0].LastError)

	require.NoError(t, repo.ResetOutboxEventPending(ctx, "ev-1"))
	require.NoError(t, repo.MarkOutboxEventSent(ctx, "ev-1"))
	require.Equal(t, repository.OutboxSent, repo.Events()[0].Status)

	require.ErrorIs(t, repo.MarkOutboxEventSent(ctx, "missing"), repository.ErrEventNotFound)
}
