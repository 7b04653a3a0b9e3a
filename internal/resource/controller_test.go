package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.MaxWorkers())

	require.NoError(t, c.AcquireWorker(t.Context()))
	require.NoError(t, c.AcquireWorker(t.Context()))
	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_AcquireWorker_ContextCanceled(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireWorker(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireWorker(ctx), context.DeadlineExceeded)
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// Within the initial burst.
	start := time.Now()
	require.NoError(t, c.AcquireIO(t.Context(), 1000))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// Larger than the burst is split rather than rejected.
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.AcquireIO(ctx, 1500))
}

func TestController_IO_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	require.NoError(t, c.AcquireIO(t.Context(), 10))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 10))
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	assert.Equal(t, 1, c.MaxWorkers())
	assert.NoError(t, c.AcquireWorker(t.Context()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	assert.NoError(t, c.AcquireIO(t.Context(), 1<<30))
}
