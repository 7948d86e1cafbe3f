package signal_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellinghamdata/portalkit/core/signal"
)

func TestHub(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("emit reaches every subscriber", func(t *testing.T) {
		t.Parallel()

		hub := signal.NewHub()
		var first, second int
		hub.Subscribe(func(context.Context) { first++ })
		hub.Subscribe(func(context.Context) { second++ })

		require.NoError(t, hub.Emit(ctx))
		assert.Equal(t, 1, first)
		assert.Equal(t, 1, second)
	})

	t.Run("unsubscribed listener no longer fires", func(t *testing.T) {
		t.Parallel()

		hub := signal.NewHub()
		var calls int
		unsubscribe := hub.Subscribe(func(context.Context) { calls++ })

		require.NoError(t, hub.Emit(ctx))
		unsubscribe()
		require.NoError(t, hub.Emit(ctx))

		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, hub.Len())
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		t.Parallel()

		hub := signal.NewHub()
		keep := hub.Subscribe(func(context.Context) {})
		_ = keep

		unsubscribe := hub.Subscribe(func(context.Context) {})
		unsubscribe()
		unsubscribe()

		assert.Equal(t, 1, hub.Len())
	})

	t.Run("nil listener is ignored", func(t *testing.T) {
		t.Parallel()

		hub := signal.NewHub()
		unsubscribe := hub.Subscribe(nil)
		unsubscribe()

		assert.Equal(t, 0, hub.Len())
		require.NoError(t, hub.Emit(ctx))
	})

	t.Run("emit after close returns ErrHubClosed", func(t *testing.T) {
		t.Parallel()

		hub := signal.NewHub()
		hub.Subscribe(func(context.Context) { t.Fatal("listener fired after close") })

		require.NoError(t, hub.Close())
		require.ErrorIs(t, hub.Emit(ctx), signal.ErrHubClosed)
		require.ErrorIs(t, hub.Close(), signal.ErrHubClosed)
	})

	t.Run("concurrent subscribe and emit", func(t *testing.T) {
		t.Parallel()

		hub := signal.NewHub()
		var calls atomic.Int64

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				unsubscribe := hub.Subscribe(func(context.Context) { calls.Add(1) })
				defer unsubscribe()
			}()
			go func() {
				defer wg.Done()
				_ = hub.Emit(ctx)
			}()
		}
		wg.Wait()
	})
}
