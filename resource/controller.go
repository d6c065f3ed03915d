// Package resource bounds the resources a shuffle run may use.
//
// The Controller manages two resource types:
//
//   - Workers: the number of chunks being shuffled and persisted concurrently.
//     Every in-flight chunk holds its records in memory, so this is also the
//     memory bound of a run (Workers full chunks plus the one accumulating).
//   - IO: a token bucket limiting spill bandwidth in bytes per second, so a
//     large shuffle does not starve other tenants of the disk or network.
//
// All methods are nil-safe: a nil *Controller imposes no limits.
package resource

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxWorkers is the maximum number of chunks processed concurrently.
	// If 0, defaults to 1.
	MaxWorkers int64

	// IOLimitBytesPerSec is the maximum spill throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages worker slots and spill bandwidth.
type Controller struct {
	cfg Config

	workers *semaphore.Weighted

	// nil if unlimited
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), burst(cfg.IOLimitBytesPerSec))
	}
	return c
}

// burst clamps the bucket size so a single WaitN never exceeds it.
func burst(limit int64) int {
	const maxBurst = 1 << 30
	if limit > maxBurst {
		return maxBurst
	}
	return int(limit)
}

// MaxWorkers returns the configured worker bound.
func (c *Controller) MaxWorkers() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxWorkers
}

// AcquireWorker reserves a worker slot, blocking until one is free or ctx is done.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// IOLimited reports whether spill bandwidth is throttled.
func (c *Controller) IOLimited() bool {
	return c != nil && c.ioLimiter != nil
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the bucket are split into bucket-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	b := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, b)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}
