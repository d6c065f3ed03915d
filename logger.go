package seqrand

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with shuffle-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithRun tags every record with the run id.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", runID),
	}
}

// LogRunStarted logs the start of a shuffle run. The seed is always logged so
// that an unseeded run can be reproduced.
func (l *Logger) LogRunStarted(ctx context.Context, seed uint64, chunkSize, workers int, location string) {
	l.InfoContext(ctx, "shuffle started",
		"seed", seed,
		"chunk_size", chunkSize,
		"workers", workers,
		"spill", location,
	)
}

// LogChunkPersisted logs a shuffled chunk written to temp storage.
func (l *Logger) LogChunkPersisted(ctx context.Context, index, records int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "chunk persist failed",
			"chunk", index,
			"records", records,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "chunk persisted",
			"chunk", index,
			"records", records,
			"bytes", bytes,
		)
	}
}

// LogChunkReplayed logs a chunk fully read back and released.
func (l *Logger) LogChunkReplayed(ctx context.Context, index, records int) {
	l.DebugContext(ctx, "chunk replayed",
		"chunk", index,
		"records", records,
	)
}

// LogRunCompleted logs the end of a run.
func (l *Logger) LogRunCompleted(ctx context.Context, consumed, emitted int64, chunks int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "shuffle failed",
			"consumed", consumed,
			"emitted", emitted,
			"chunks", chunks,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "shuffle completed",
			"records", emitted,
			"chunks", chunks,
			"elapsed", elapsed,
		)
	}
}

// LogCleanup logs the release of the run's temp storage.
func (l *Logger) LogCleanup(ctx context.Context, location string, removedDir bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "temp storage cleanup incomplete",
			"spill", location,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "temp storage released",
			"spill", location,
			"removed_dir", removedDir,
		)
	}
}
