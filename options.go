package seqrand

import (
	"fmt"

	"github.com/hupe1980/seqrand/blobstore"
	"github.com/hupe1980/seqrand/internal/fs"
	"github.com/hupe1980/seqrand/internal/spill"
	"github.com/hupe1980/seqrand/internal/tempstore"
)

// DefaultChunkSize is the number of records shuffled together in memory.
const DefaultChunkSize = 500000

// Compression re-exports the spill compression modes.
type Compression = spill.Compression

const (
	CompressionNone = spill.CompressionNone
	CompressionLZ4  = spill.CompressionLZ4
	CompressionZSTD = spill.CompressionZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	c, err := spill.ParseCompression(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

type options struct {
	seed         uint64
	hasSeed      bool
	chunkSize    int
	tempDir      string
	store        blobstore.Store
	storePrefix  string
	workers      int
	compression  Compression
	ioLimit      int64
	minFreeBytes uint64
	logger       *Logger
	metrics      MetricsCollector
	fs           fs.FileSystem
}

// Option configures a Shuffler.
type Option func(*options)

func defaultOptions() options {
	return options{
		chunkSize:   DefaultChunkSize,
		workers:     1,
		compression: CompressionNone,
		storePrefix: tempstore.DefaultPrefix,
		logger:      NoopLogger(),
		metrics:     NoopMetricsCollector{},
		fs:          fs.Default,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) validate() error {
	if o.chunkSize <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidChunkSize, o.chunkSize)
	}
	if o.workers <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidWorkers, o.workers)
	}
	if o.ioLimit < 0 {
		return fmt.Errorf("%w: io limit must not be negative (got %d)", ErrInvalidConfig, o.ioLimit)
	}
	if o.compression > CompressionZSTD {
		return fmt.Errorf("%w: unknown compression %s", ErrInvalidConfig, o.compression)
	}
	if o.store != nil && o.tempDir != "" {
		return fmt.Errorf("%w: temp dir and spill store are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}

// WithSeed fixes the shuffle seed. Runs with the same seed, chunk size and
// input produce identical output. Without a seed the wall clock is used and
// the effective seed is reported by Shuffler.Seed and the run log.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithChunkSize sets the number of records per chunk (default 500000).
// Larger chunks shuffle more thoroughly and use more memory.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithTempDir sets the local spill directory.
//
// An existing directory is reused and never deleted. A missing one is created
// (its parent must exist) and removed at the end of the run if it is empty.
// Without this option os.TempDir() is used.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithSpillStore spills chunks to a blob store instead of a local directory.
// Object names start with prefix.
//
// Example with MinIO:
//
//	client, _ := minio.NewClient("localhost:9000", false)
//	s, _ := seqrand.New(codec, seqrand.WithSpillStore(minio.NewStore(client, "scratch", "seqrand/"), "run-1"))
func WithSpillStore(store blobstore.Store, prefix string) Option {
	return func(o *options) {
		o.store = store
		if prefix != "" {
			o.storePrefix = prefix
		}
	}
}

// WithWorkers sets how many chunks are shuffled and persisted concurrently
// (default 1). Output is identical for every worker count; memory use grows
// with it.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCompression compresses spilled chunks.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithIOLimit caps spill throughput in bytes per second. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMinFreeBytes fails the run before reading any record when the local
// spill directory has less free space.
func WithMinFreeBytes(n uint64) Option {
	return func(o *options) {
		o.minFreeBytes = n
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := seqrand.NewJSONLogger(os.Stderr, slog.LevelInfo)
//	s, _ := seqrand.New(codec, seqrand.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &seqrand.BasicMetricsCollector{}
//	s, _ := seqrand.New(codec, seqrand.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("chunks: %d, bytes: %d\n", stats.ChunksPersisted, stats.BytesPersisted)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithFileSystem replaces the file system used for local spilling.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fs = fsys
	}
}
