package seqrand

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordChunkPersisted is called after each chunk is shuffled and written.
	// bytes is the size on the spill target, err is nil if successful.
	RecordChunkPersisted(records int, bytes int64, duration time.Duration, err error)

	// RecordChunkReplayed is called after each chunk is fully read back.
	RecordChunkReplayed(records int, duration time.Duration)

	// RecordRun is called once when a run completes or fails.
	RecordRun(records int64, chunks int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordChunkPersisted(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordChunkReplayed(int, time.Duration)                {}
func (NoopMetricsCollector) RecordRun(int64, int, time.Duration, error)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ChunksPersisted    atomic.Int64
	ChunkPersistErrors atomic.Int64
	RecordsPersisted   atomic.Int64
	BytesPersisted     atomic.Int64
	PersistTotalNanos  atomic.Int64
	ChunksReplayed     atomic.Int64
	RecordsReplayed    atomic.Int64
	ReplayTotalNanos   atomic.Int64
	Runs               atomic.Int64
	RunErrors          atomic.Int64
}

// RecordChunkPersisted implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkPersisted(records int, bytes int64, duration time.Duration, err error) {
	if err != nil {
		b.ChunkPersistErrors.Add(1)
		return
	}
	b.ChunksPersisted.Add(1)
	b.RecordsPersisted.Add(int64(records))
	b.BytesPersisted.Add(bytes)
	b.PersistTotalNanos.Add(duration.Nanoseconds())
}

// RecordChunkReplayed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkReplayed(records int, duration time.Duration) {
	b.ChunksReplayed.Add(1)
	b.RecordsReplayed.Add(int64(records))
	b.ReplayTotalNanos.Add(duration.Nanoseconds())
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ int64, _ int, _ time.Duration, err error) {
	b.Runs.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ChunksPersisted:    b.ChunksPersisted.Load(),
		ChunkPersistErrors: b.ChunkPersistErrors.Load(),
		RecordsPersisted:   b.RecordsPersisted.Load(),
		BytesPersisted:     b.BytesPersisted.Load(),
		PersistAvgNanos:    avg(b.PersistTotalNanos.Load(), b.ChunksPersisted.Load()),
		ChunksReplayed:     b.ChunksReplayed.Load(),
		RecordsReplayed:    b.RecordsReplayed.Load(),
		ReplayAvgNanos:     avg(b.ReplayTotalNanos.Load(), b.ChunksReplayed.Load()),
		Runs:               b.Runs.Load(),
		RunErrors:          b.RunErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ChunksPersisted    int64
	ChunkPersistErrors int64
	RecordsPersisted   int64
	BytesPersisted     int64
	PersistAvgNanos    int64
	ChunksReplayed     int64
	RecordsReplayed    int64
	ReplayAvgNanos     int64
	Runs               int64
	RunErrors          int64
}
