package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestManager_ShutdownRunsInReverseOrder(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var order []string
	m.Add("postgres_pool", func(context.Context) error {
		order = append(order, "postgres_pool")
		return nil
	})
	m.Add("outbox", func(context.Context) error {
		order = append(order, "outbox")
		return errors.New("writer already closed")
	})
	m.Add("http_server", func(context.Context) error {
		order = append(order, "http_server")
		return nil
	})

	m.Shutdown()

	require.Equal(t, []string{"http_server", "outbox", "postgres_pool"}, order)
}

func TestManager_FunctionsGetDeadline(t *testing.T) {
	m := New(50*time.Millisecond, zap.NewNop())

	var hasDeadline bool
	m.Add("probe", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	m.Shutdown()
	require.True(t, hasDeadline)
}

func TestHelpers(t *testing.T) {
	closed := false
	require.NoError(t, Close(closerFunc(func() error {
		closed = true
		return nil
	}))(context.Background()))
	require.True(t, closed)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, Cancel(cancel)(context.Background()))
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
