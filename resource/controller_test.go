package resource

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.ErrorIs(t, c.AcquireMemory(20), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())

	// a single request larger than the budget never fits
	assert.ErrorIs(t, NewController(Config{MemoryLimitBytes: 10}).AcquireMemory(11), ErrMemoryLimitExceeded)
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_NilIsUnlimited(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
}

func TestController_ComputeSlot(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireCompute(context.Background()))
	assert.False(t, c.TryAcquireCompute())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireCompute(ctx), context.DeadlineExceeded)

	c.ReleaseCompute()
	assert.True(t, c.TryAcquireCompute())
	c.ReleaseCompute()
	assert.Equal(t, int64(2), c.Jobs())
}

func TestController_ComputeSerializes(t *testing.T) {
	c := NewController(Config{})

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, c.AcquireCompute(context.Background())) {
				return
			}
			defer c.ReleaseCompute()

			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, int64(8), c.Jobs())
	assert.Zero(t, c.Waiting())
}

func TestRateLimitedWriter(t *testing.T) {
	// burst smaller than the write forces chunked reservations
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20, IOBurstBytes: 16})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	payload := bytes.Repeat([]byte{0xAB}, 100)
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, payload, buf.Bytes())
	assert.Equal(t, int64(100), w.Written())
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20, IOBurstBytes: 8})

	payload := bytes.Repeat([]byte("splat"), 20)
	r := NewRateLimitedReader(context.Background(), bytes.NewReader(payload), c)

	// reads never exceed the burst
	p := make([]byte, 64)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, append(p[:n:n], rest...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRateLimitedReader(ctx, bytes.NewReader(payload), nil).Read(p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitedWriter_Canceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1, IOBurstBytes: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewRateLimitedWriter(ctx, &bytes.Buffer{}, c)
	_, err := w.Write([]byte("hello"))
	assert.Error(t, err)
}
