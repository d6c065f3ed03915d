package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, int64(2), c.MaxWorkers())

	require.NoError(t, c.AcquireWorker(t.Context()))
	require.NoError(t, c.AcquireWorker(t.Context()))

	assert.False(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireWorker(ctx), context.DeadlineExceeded)

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_DefaultWorkers(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(1), c.MaxWorkers())
	assert.False(t, c.IOLimited())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	assert.Equal(t, int64(0), c.MaxWorkers())
	assert.NoError(t, c.AcquireWorker(context.Background()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()

	assert.False(t, c.IOLimited())
	assert.NoError(t, c.AcquireIO(context.Background(), 100))
	assert.True(t, c.TryAcquireIO(100))
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})
	assert.True(t, c.IOLimited())

	assert.NoError(t, c.AcquireIO(context.Background(), 100))
	assert.True(t, c.TryAcquireIO(100))

	// Bucket is mostly drained; a cancelled context stops the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 5000))

	unlimited := NewController(Config{})
	assert.NoError(t, unlimited.AcquireIO(context.Background(), 1<<20))
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10000})
	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10000})
	r := NewRateLimitedReader(context.Background(), bytes.NewReader([]byte("hello world")), c)

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, " world", string(rest))
}

func TestRateLimitedReader_ContextCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRateLimitedReader(ctx, bytes.NewReader([]byte("hello world")), c)
	_, err := r.Read(make([]byte, 1000))
	assert.ErrorIs(t, err, context.Canceled)
}

type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestRateLimitedReadCloser(t *testing.T) {
	src := &closeCounter{Reader: bytes.NewReader([]byte("abc"))}
	rc := NewRateLimitedReadCloser(context.Background(), src, nil)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	require.NoError(t, rc.Close())
	assert.Equal(t, 1, src.closed)
}
