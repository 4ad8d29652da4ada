package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation does not fit in the
// memory budget.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps the scratch memory of in-flight compute jobs.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec throttles archive output.
	// If 0, unlimited.
	IOLimitBytesPerSec int64

	// IOBurstBytes is the largest single IO reservation.
	// If 0, defaults to IOLimitBytesPerSec.
	IOBurstBytes int
}

// Controller guards the shared compute resource.
//
// At most one compute job holds the compute slot at a time; further callers
// queue in FIFO order. Memory reservations never block.
type Controller struct {
	cfg Config

	compute *semaphore.Weighted

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Stats
	jobs    atomic.Int64
	waiting atomic.Int64

	// IO
	ioLimiter *rate.Limiter
	ioBurst   int
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		cfg:     cfg,
		compute: semaphore.NewWeighted(1),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		burst := cfg.IOBurstBytes
		if burst <= 0 {
			burst = int(cfg.IOLimitBytesPerSec)
		}
		c.ioBurst = burst
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), burst)
	}

	return c
}

// AcquireCompute waits for the compute slot.
func (c *Controller) AcquireCompute(ctx context.Context) error {
	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	if err := c.compute.Acquire(ctx, 1); err != nil {
		return err
	}
	c.jobs.Add(1)
	return nil
}

// TryAcquireCompute takes the compute slot if it is free.
func (c *Controller) TryAcquireCompute() bool {
	if !c.compute.TryAcquire(1) {
		return false
	}
	c.jobs.Add(1)
	return true
}

// ReleaseCompute frees the compute slot.
func (c *Controller) ReleaseCompute() {
	c.compute.Release(1)
}

// Jobs returns the number of compute jobs started so far.
func (c *Controller) Jobs() int64 {
	return c.jobs.Load()
}

// Waiting returns the number of callers queued for the compute slot.
func (c *Controller) Waiting() int64 {
	return c.waiting.Load()
}

// AcquireMemory reserves bytes of scratch memory.
// Returns ErrMemoryLimitExceeded if the budget cannot hold it.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	for bytes > 0 {
		n := min(bytes, c.ioBurst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// ioChunk caps n to the IO burst when throttling is enabled.
func (c *Controller) ioChunk(n int) int {
	if c == nil || c.ioLimiter == nil || c.ioBurst <= 0 {
		return max(n, 1)
	}
	return max(min(n, c.ioBurst), 1)
}
