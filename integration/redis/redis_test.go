package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bellinghamdata/portalkit/core/config"
	"github.com/bellinghamdata/portalkit/integration/redis"
)

func TestConnectValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty URL rejected", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{})
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("malformed URL rejected", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{ConnectionURL: "http://not-redis"})
		require.ErrorIs(t, err, redis.ErrFailedToParseConnURL)
	})

	t.Run("unreachable server reports not ready", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{
			// Reserved TEST-NET address: never routable.
			ConnectionURL:  "redis://192.0.2.1:6379/0",
			RetryAttempts:  1,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: 300 * time.Millisecond,
		})
		require.ErrorIs(t, err, redis.ErrNotReady)
	})
}

func TestConfigDefaults(t *testing.T) {
	var cfg redis.Config
	require.NoError(t, config.Load(&cfg))

	require.Equal(t, "redis://localhost:6379/0", cfg.ConnectionURL)
	require.Equal(t, 3, cfg.RetryAttempts)
	require.Equal(t, 5*time.Second, cfg.RetryInterval)
	require.Equal(t, 30*time.Second, cfg.ConnectTimeout)
}
