package seqrand

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/seqrand/codec"
	"github.com/hupe1980/seqrand/internal/chunk"
	"github.com/hupe1980/seqrand/internal/rng"
	"github.com/hupe1980/seqrand/internal/spill"
	"github.com/hupe1980/seqrand/internal/tempstore"
	"github.com/hupe1980/seqrand/resource"
)

// Shuffler randomizes one stream of records with bounded memory.
//
// Records are grouped into chunks of ChunkSize, each chunk is shuffled with
// its own generator derived from the seed and the chunk index, spilled to
// temp storage, and the chunks are replayed in creation order. The result is
// locally shuffled and globally chunk-ordered: a record never leaves the
// chunk it was read into.
//
// A Shuffler performs a single run.
type Shuffler[T any] struct {
	codec codec.Codec[T]
	opts  options
	rc    *resource.Controller
	log   *Logger

	started atomic.Bool
	seed    atomic.Uint64
	state   atomic.Int32

	persisted atomic.Int64
	replayed  atomic.Int64
	consumed  atomic.Int64
	emitted   atomic.Int64

	startTime time.Time
}

// persistedChunk is the bookkeeping of one chunk between persist and replay.
type persistedChunk struct {
	index int
	h     *tempstore.Handle
	count int
	bytes int64
}

// New validates the configuration and returns an idle Shuffler. No I/O
// happens before Shuffle or Run.
func New[T any](c codec.Codec[T], opts ...Option) (*Shuffler[T], error) {
	if c == nil {
		return nil, fmt.Errorf("%w: codec is nil", ErrInvalidConfig)
	}
	o := applyOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}

	s := &Shuffler[T]{
		codec: c,
		opts:  o,
		rc: resource.NewController(resource.Config{
			MaxWorkers:         int64(o.workers),
			IOLimitBytesPerSec: o.ioLimit,
		}),
		log: o.logger,
	}
	if o.hasSeed {
		s.seed.Store(o.seed)
	}
	return s, nil
}

// Seed returns the shuffle seed. For unseeded Shufflers it is valid once the
// run has started.
func (s *Shuffler[T]) Seed() uint64 { return s.seed.Load() }

// ChunkSize returns the configured chunk size.
func (s *Shuffler[T]) ChunkSize() int { return s.opts.chunkSize }

// State returns the current phase of the run.
func (s *Shuffler[T]) State() State { return State(s.state.Load()) }

// Progress returns a snapshot of the run's counters.
func (s *Shuffler[T]) Progress() Progress {
	return Progress{
		State:           s.State(),
		ChunksPersisted: int(s.persisted.Load()),
		ChunksReplayed:  int(s.replayed.Load()),
		Consumed:        s.consumed.Load(),
		Emitted:         s.emitted.Load(),
	}
}

func (s *Shuffler[T]) setState(st State) { s.state.Store(int32(st)) }

// Shuffle consumes src completely, persisting shuffled chunks, and returns an
// Output that replays them. On error every spill object is released before
// Shuffle returns and the Shuffler is Failed.
//
// The caller must Close the returned Output.
func (s *Shuffler[T]) Shuffle(ctx context.Context, src Source[T]) (*Output[T], error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}
	if src == nil {
		s.setState(StateFailed)
		return nil, fmt.Errorf("%w: source is nil", ErrInvalidConfig)
	}
	if !s.opts.hasSeed {
		s.seed.Store(rng.ClockSeed())
	}
	s.startTime = time.Now()

	mgr, err := s.newManager()
	if err != nil {
		s.setState(StateFailed)
		err = newResourceError("prepare temp storage", s.opts.tempDir, err)
		s.opts.metrics.RecordRun(0, 0, time.Since(s.startTime), err)
		s.log.LogRunCompleted(ctx, 0, 0, 0, time.Since(s.startTime), err)
		return nil, err
	}
	s.log = s.log.WithRun(mgr.RunID())
	s.log.LogRunStarted(ctx, s.Seed(), s.opts.chunkSize, s.opts.workers, s.location(mgr))

	s.setState(StateReading)
	chunks, err := s.persistAll(ctx, src, mgr)
	if err != nil {
		return nil, s.fail(ctx, mgr, err)
	}

	s.setState(StateReplaying)
	return &Output[T]{s: s, mgr: mgr, chunks: chunks}, nil
}

// Run shuffles src into sink and releases all temp storage.
func (s *Shuffler[T]) Run(ctx context.Context, src Source[T], sink Sink[T]) error {
	if sink == nil {
		return fmt.Errorf("%w: sink is nil", ErrInvalidConfig)
	}
	out, err := s.Shuffle(ctx, src)
	if err != nil {
		return err
	}
	for {
		rec, err := out.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out.Close(ctx)
		}
		if err != nil {
			_ = out.Close(ctx)
			return err
		}
		if err := sink.Write(rec); err != nil {
			return out.abort(ctx, &StreamError{Side: "sink", cause: err})
		}
	}
}

func (s *Shuffler[T]) newManager() (*tempstore.Manager, error) {
	if s.opts.store != nil {
		return tempstore.NewRemote(s.opts.store, s.opts.storePrefix), nil
	}
	return tempstore.NewLocal(tempstore.LocalConfig{
		FS:           s.opts.fs,
		Dir:          s.opts.tempDir,
		MinFreeBytes: s.opts.minFreeBytes,
		Prefix:       s.opts.storePrefix,
	})
}

func (s *Shuffler[T]) location(mgr *tempstore.Manager) string {
	if dir := mgr.Dir(); dir != "" {
		return dir
	}
	return "store:" + s.opts.storePrefix
}

// persistAll runs the Reading and Draining phases. Chunks are handed to at
// most Workers goroutines; handles are allocated by the reading goroutine so
// the returned slice is in creation order.
func (s *Shuffler[T]) persistAll(ctx context.Context, src Source[T], mgr *tempstore.Manager) ([]*persistedChunk, error) {
	acc, err := chunk.NewAccumulator[T](s.opts.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()
	g, gctx := errgroup.WithContext(readCtx)

	var chunks []*persistedChunk
	dispatch := func(records []T) error {
		if err := s.rc.AcquireWorker(gctx); err != nil {
			return err
		}
		h, err := mgr.NewFile(gctx)
		if err != nil {
			s.rc.ReleaseWorker()
			return newResourceError("allocate chunk", mgr.Dir(), err)
		}
		pc := &persistedChunk{index: h.Index(), h: h, count: len(records)}
		chunks = append(chunks, pc)

		g.Go(func() error {
			defer s.rc.ReleaseWorker()
			return s.persist(gctx, mgr, pc, records)
		})
		return nil
	}

	readErr := func() error {
		for {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := src.Next(gctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return &StreamError{Side: "source", cause: err}
			}
			s.consumed.Add(1)
			if full, ok := acc.Offer(rec); ok {
				if err := dispatch(full); err != nil {
					return err
				}
			}
		}
		s.setState(StateDraining)
		if rest, ok := acc.Flush(); ok {
			return dispatch(rest)
		}
		return nil
	}()
	if readErr != nil {
		cancelRead()
	}

	waitErr := g.Wait()
	switch {
	case waitErr != nil && (readErr == nil || !errors.Is(waitErr, context.Canceled)):
		return nil, waitErr
	case readErr != nil:
		return nil, readErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// persist shuffles one chunk with its derived generator and writes it.
func (s *Shuffler[T]) persist(ctx context.Context, mgr *tempstore.Manager, pc *persistedChunk, records []T) error {
	start := time.Now()

	gen := rng.New(rng.Derive(s.Seed(), uint64(pc.index))) //nolint:gosec // index >= 0
	chunk.Shuffle(records, gen)

	var w io.Writer = pc.h.Writer()
	if s.rc.IOLimited() {
		w = resource.NewRateLimitedWriter(ctx, w, s.rc)
	}
	n, err := spill.Encode(w, records, s.codec, s.opts.compression)
	if err == nil {
		err = pc.h.Commit()
	}
	if err != nil {
		if errors.Is(err, spill.ErrMarshal) {
			err = fmt.Errorf("chunk %d: %w", pc.index, err)
		} else if !errors.Is(err, context.Canceled) {
			err = newResourceError("spill write", mgr.Location(pc.h.Name()), err)
		}
		s.opts.metrics.RecordChunkPersisted(pc.count, n, time.Since(start), err)
		s.log.LogChunkPersisted(ctx, pc.index, pc.count, n, err)
		return err
	}

	pc.bytes = n
	s.persisted.Add(1)
	s.opts.metrics.RecordChunkPersisted(pc.count, n, time.Since(start), nil)
	s.log.LogChunkPersisted(ctx, pc.index, pc.count, n, nil)
	return nil
}

// fail moves the run to Failed, releases all temp storage and returns err
// joined with any cleanup failure.
func (s *Shuffler[T]) fail(ctx context.Context, mgr *tempstore.Manager, err error) error {
	s.setState(StateFailed)
	cleanupErr := s.cleanup(ctx, mgr)

	s.opts.metrics.RecordRun(s.emitted.Load(), int(s.persisted.Load()), time.Since(s.startTime), err)
	s.log.LogRunCompleted(ctx, s.consumed.Load(), s.emitted.Load(), int(s.persisted.Load()), time.Since(s.startTime), err)

	if cleanupErr != nil {
		return errors.Join(err, cleanupErr)
	}
	return err
}

// cleanup closes the manager even when ctx is already canceled.
func (s *Shuffler[T]) cleanup(ctx context.Context, mgr *tempstore.Manager) error {
	err := mgr.Close(context.WithoutCancel(ctx))
	removedDir := false
	if dir := mgr.Dir(); dir != "" && !mgr.Preexisted() {
		if _, statErr := s.opts.fs.Stat(dir); statErr != nil {
			removedDir = true
		}
	}
	if err != nil {
		err = newResourceError("cleanup", mgr.Dir(), err)
	}
	s.log.LogCleanup(ctx, s.location(mgr), removedDir, err)
	return err
}
