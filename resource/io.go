package resource

import (
	"context"
	"io"
)

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, rc: rc}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader wraps an io.Reader with rate limiting.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, rc: rc}
}

// Read charges the bytes actually read, so a short read of a large buffer
// does not stall the caller for tokens it never used.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.rc.AcquireIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// RateLimitedReadCloser is a RateLimitedReader that also closes the source.
type RateLimitedReadCloser struct {
	*RateLimitedReader
	c io.Closer
}

// NewRateLimitedReadCloser wraps rc's reads with rate limiting and forwards Close.
func NewRateLimitedReadCloser(ctx context.Context, r io.ReadCloser, rc *Controller) *RateLimitedReadCloser {
	return &RateLimitedReadCloser{RateLimitedReader: NewRateLimitedReader(ctx, r, rc), c: r}
}

func (r *RateLimitedReadCloser) Close() error { return r.c.Close() }
