//go:build integration

package settings

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestRedisProvider_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, container.Terminate(ctx))
	}()

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	base := Settings{Mode: "test", Secret: "env-secret", SuccessText: "ok"}
	provider := NewRedisProvider(client, "", base, zap.NewNop())

	// пустой hash: действуют настройки из env
	s, err := provider.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, base, s)

	require.NoError(t, client.HSet(ctx, DefaultRedisKey,
		"yamoney_secret", "rotated",
		"yamoney_success_text", "Спасибо за оплату",
	).Err())

	s, err = provider.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "rotated", s.Secret)
	require.Equal(t, "Спасибо за оплату", s.SuccessText)
	require.Equal(t, "test", s.Mode)
}
