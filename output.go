package seqrand

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/seqrand/internal/spill"
	"github.com/hupe1980/seqrand/internal/tempstore"
	"github.com/hupe1980/seqrand/resource"
)

// Output replays the persisted chunks of a run as one record stream.
//
// Chunks are opened strictly in creation order and each chunk is released as
// soon as it has been read completely. Output is meant for a single consumer;
// Next is nevertheless safe to call from several goroutines.
type Output[T any] struct {
	s      *Shuffler[T]
	mgr    *tempstore.Manager
	chunks []*persistedChunk

	mu      sync.Mutex
	pos     int
	cur     *spill.Decoder[T]
	curR    io.ReadCloser
	curRead int
	opened  time.Time
	emitted int64
	done    bool
	closed  bool
	err     error
}

// Chunks returns the number of persisted chunks.
func (o *Output[T]) Chunks() int { return len(o.chunks) }

// Next returns the next record in output order, or io.EOF after the last one.
// Reaching io.EOF verifies that as many records were replayed as consumed and
// releases the remaining temp storage.
func (o *Output[T]) Next(ctx context.Context) (T, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var zero T
	switch {
	case o.closed:
		return zero, ErrOutputClosed
	case o.err != nil:
		return zero, o.err
	case o.done:
		return zero, io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return zero, o.failLocked(ctx, err)
		}
		if o.cur == nil {
			if o.pos >= len(o.chunks) {
				return zero, o.finishLocked(ctx)
			}
			if err := o.openLocked(ctx); err != nil {
				return zero, o.failLocked(ctx, err)
			}
		}

		rec, err := o.cur.Next()
		if err == nil {
			o.curRead++
			o.emitted++
			o.s.emitted.Add(1)
			return rec, nil
		}
		if !errors.Is(err, io.EOF) {
			return zero, o.failLocked(ctx, o.readError(err))
		}
		if err := o.releaseCurrentLocked(ctx); err != nil {
			return zero, o.failLocked(ctx, err)
		}
	}
}

// Close releases the remaining chunks and the temp storage. Closing before
// io.EOF abandons the run and leaves the Shuffler Failed. Close is idempotent.
func (o *Output[T]) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	if o.done || o.err != nil {
		// Storage was already released on the terminal transition.
		return nil
	}
	o.closeCurrentLocked()
	if err := o.s.fail(ctx, o.mgr, ErrOutputClosed); err != ErrOutputClosed { //nolint:errorlint // joined cleanup errors pass through
		return err
	}
	return nil
}

// abort fails the run with err, for errors raised outside the Output.
func (o *Output[T]) abort(ctx context.Context, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.done || o.err != nil {
		return err
	}
	o.closed = true
	return o.failLocked(ctx, err)
}

func (o *Output[T]) chunk() *persistedChunk { return o.chunks[o.pos] }

func (o *Output[T]) openLocked(ctx context.Context) error {
	pc := o.chunk()
	r, err := o.mgr.Open(ctx, pc.h)
	if err != nil {
		return newResourceError("spill open", o.mgr.Location(pc.h.Name()), err)
	}
	if o.s.rc.IOLimited() {
		r = resource.NewRateLimitedReadCloser(ctx, r, o.s.rc)
	}

	dec, err := spill.NewDecoder(r, o.s.codec, o.s.opts.compression)
	if err != nil {
		_ = r.Close()
		return o.readError(err)
	}
	if dec.Count() != pc.count {
		_ = dec.Close()
		_ = r.Close()
		return fmt.Errorf("%w: chunk %d declares %d records, %d were persisted",
			ErrCountMismatch, pc.index, dec.Count(), pc.count)
	}

	o.cur, o.curR, o.curRead = dec, r, 0
	o.opened = time.Now()
	return nil
}

// readError classifies a decode failure of the current chunk.
func (o *Output[T]) readError(err error) error {
	pc := o.chunk()
	if errors.Is(err, spill.ErrCorrupt) {
		return fmt.Errorf("%w: chunk %d: %w", ErrCorruptChunk, pc.index, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return newResourceError("spill read", o.mgr.Location(pc.h.Name()), err)
}

func (o *Output[T]) closeCurrentLocked() {
	if o.cur != nil {
		_ = o.cur.Close()
		_ = o.curR.Close()
		o.cur, o.curR = nil, nil
	}
}

// releaseCurrentLocked finishes the fully read chunk and deletes it.
func (o *Output[T]) releaseCurrentLocked(ctx context.Context) error {
	pc := o.chunk()
	read := o.curRead
	o.closeCurrentLocked()

	if read != pc.count {
		return fmt.Errorf("%w: chunk %d replayed %d of %d records", ErrCountMismatch, pc.index, read, pc.count)
	}
	if err := o.mgr.Release(ctx, pc.h); err != nil {
		return newResourceError("spill release", o.mgr.Location(pc.h.Name()), err)
	}

	o.pos++
	o.s.replayed.Add(1)
	o.s.opts.metrics.RecordChunkReplayed(read, time.Since(o.opened))
	o.s.log.LogChunkReplayed(ctx, pc.index, read)
	return nil
}

// finishLocked performs the Replaying -> Done transition.
func (o *Output[T]) finishLocked(ctx context.Context) error {
	s := o.s
	if consumed := s.consumed.Load(); consumed != o.emitted {
		return o.failLocked(ctx, fmt.Errorf("%w: consumed %d records, replayed %d", ErrCountMismatch, consumed, o.emitted))
	}

	// Cleanup failures do not change the outcome of a complete run; they are
	// logged by cleanup.
	_ = s.cleanup(ctx, o.mgr)

	o.done = true
	s.setState(StateDone)
	elapsed := time.Since(s.startTime)
	s.opts.metrics.RecordRun(o.emitted, len(o.chunks), elapsed, nil)
	s.log.LogRunCompleted(ctx, s.consumed.Load(), o.emitted, len(o.chunks), elapsed, nil)
	return io.EOF
}

func (o *Output[T]) failLocked(ctx context.Context, err error) error {
	o.closeCurrentLocked()
	o.err = o.s.fail(ctx, o.mgr, err)
	return o.err
}
