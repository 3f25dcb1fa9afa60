package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/repository/memory"
	"github.com/shestoi/yamoney-gateway/internal/repository/mocks"
)

type fakeWriter struct {
	mu       sync.Mutex
	failures int
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures > 0 {
		w.failures--
		return errors.New("leader not available")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func seedEvent(t *testing.T, repo *memory.MemoryRepository, ymid string) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.Create(ctx, repository.Transaction{YMID: ymid, OrderID: "1", Status: repository.StatusProcessed})
	require.NoError(t, err)
	_, err = repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID: ymid,
		From: []repository.Status{repository.StatusProcessed},
		To:   repository.StatusPayed,
		Event: &repository.OutboxEvent{
			EventID:     "ev-" + ymid,
			AggregateID: ymid,
			Topic:       "yamoney.success",
			Payload:     []byte(`{"ymid":"` + ymid + `"}`),
		},
	})
	require.NoError(t, err)
}

func TestOutboxDispatcher_PublishesAndMarksSent(t *testing.T) {
	repo := memory.NewMemoryRepository()
	seedEvent(t, repo, "ym-1")
	seedEvent(t, repo, "ym-2")

	writer := &fakeWriter{}
	d := NewOutboxDispatcher(zap.NewNop(), repo, writer, DispatcherConfig{BatchSize: 10, MaxRetries: 3})

	require.NoError(t, d.ProcessBatch(context.Background()))

	require.Len(t, writer.messages, 2)
	require.Equal(t, "yamoney.success", writer.messages[0].Topic)
	require.Equal(t, []byte("ym-1"), writer.messages[0].Key)
	require.Equal(t, "event_id", writer.messages[0].Headers[0].Key)

	for _, ev := range repo.Events() {
		require.Equal(t, repository.OutboxSent, ev.Status)
	}

	// повторный проход ничего не публикует
	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Len(t, writer.messages, 2)
}

func TestOutboxDispatcher_RetriesThenSucceeds(t *testing.T) {
	repo := memory.NewMemoryRepository()
	seedEvent(t, repo, "ym-1")

	writer := &fakeWriter{failures: 2}
	d := NewOutboxDispatcher(zap.NewNop(), repo, writer, DispatcherConfig{MaxRetries: 3, Backoff: time.Millisecond})

	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Len(t, writer.messages, 1)
	require.Equal(t, repository.OutboxSent, repo.Events()[0].Status)
}

func TestOutboxDispatcher_ExhaustedRetriesKeepsEventPending(t *testing.T) {
	repo := memory.NewMemoryRepository()
	seedEvent(t, repo, "ym-1")

	writer := &fakeWriter{failures: 5}
	d := NewOutboxDispatcher(zap.NewNop(), repo, writer, DispatcherConfig{MaxRetries: 2, Backoff: time.Millisecond})

	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Empty(t, writer.messages)

	ev := repo.Events()[0]
	require.Equal(t, repository.OutboxPending, ev.Status)
	require.Equal(t, 1, ev.Attempts)
	require.Contains(t, ev.LastError, "leader not available")
}

func TestOutboxDispatcher_RepositoryError(t *testing.T) {
	repo := mocks.NewOutboxRepository(t)
	repo.On("GetPendingOutboxEvents", mock.Anything, 100).Return(nil, errors.New("connection refused")).Once()

	d := NewOutboxDispatcher(zap.NewNop(), repo, &fakeWriter{}, DispatcherConfig{})
	err := d.ProcessBatch(context.Background())
	require.ErrorContains(t, err, "connection refused")
}

func TestOutboxDispatcher_MarkSentError(t *testing.T) {
	repo := mocks.NewOutboxRepository(t)
	repo.On("GetPendingOutboxEvents", mock.Anything, 100).Return([]repository.OutboxEvent{
		{EventID: "ev-1", AggregateID: "ym-1", Topic: "yamoney.success"},
		{EventID: "ev-2", AggregateID: "ym-2", Topic: "yamoney.success"},
	}, nil).Once()
	repo.On("MarkOutboxEventSent", mock.Anything, "ev-1").Return(errors.New("tx aborted")).Once()
	repo.On("MarkOutboxEventSent", mock.Anything, "ev-2").Return(nil).Once()

	writer := &fakeWriter{}
	d := NewOutboxDispatcher(zap.NewNop(), repo, writer, DispatcherConfig{})

	// ошибка одного события не останавливает пачку
	require.NoError(t, d.ProcessBatch(context.Background()))
	require.Len(t, writer.messages, 2)
}

func TestOutboxDispatcher_StartStopsOnCancel(t *testing.T) {
	repo := memory.NewMemoryRepository()
	seedEvent(t, repo, "ym-1")
	writer := &fakeWriter{}
	d := NewOutboxDispatcher(zap.NewNop(), repo, writer, DispatcherConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	require.Eventually(t, func() bool {
		return repo.Events()[0].Status == repository.OutboxSent
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}

	require.NoError(t, d.Close())
	require.True(t, writer.closed)
}
