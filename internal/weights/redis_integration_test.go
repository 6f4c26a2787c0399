//go:build integration

package weights

import (
	"context"
	"fmt"
	"testing"
	"time"

	"phonecbr/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := NewRedisStore(RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port()), PoolSize: 2, Prefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	w := model.DefaultWeights()
	w.Camera, w.Screen = 5, 10
	require.NoError(t, store.Save(ctx, w))

	got, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, w, got)
	assert.NoError(t, store.Ping(ctx))
}
