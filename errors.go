package seqrand

import (
	"errors"
	"fmt"

	"github.com/hupe1980/seqrand/internal/spill"
	"github.com/hupe1980/seqrand/internal/tempstore"
)

var (
	// ErrInvalidConfig is returned for unusable configuration. It is detected
	// before any I/O happens.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	ErrInvalidChunkSize = fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)

	// ErrAlreadyStarted is returned when Shuffle or Run is called twice on the
	// same Shuffler. A Shuffler performs exactly one run.
	ErrAlreadyStarted = errors.New("shuffler already started")

	// ErrOutputClosed is returned by Output.Next after Close.
	ErrOutputClosed = errors.New("output closed")

	// ErrIntegrity is the parent of all consistency failures.
	ErrIntegrity = errors.New("integrity violation")

	// ErrCorruptChunk reports a persisted chunk that could not be decoded.
	ErrCorruptChunk = fmt.Errorf("%w: corrupt chunk", ErrIntegrity)

	// ErrCountMismatch reports that the records replayed differ in number
	// from the records consumed.
	ErrCountMismatch = fmt.Errorf("%w: record count mismatch", ErrIntegrity)

	// ErrMarshal reports a record the codec failed to encode.
	ErrMarshal = spill.ErrMarshal
)

// ResourceError reports a failure of the temp storage: directory preparation,
// spill writes and reads, free space checks and cleanup.
//
// The original underlying error can be accessed via errors.Unwrap.
type ResourceError struct {
	Op    string
	Path  string
	cause error
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("resource error: %s: %v", e.Op, e.cause)
	}
	return fmt.Sprintf("resource error: %s %s: %v", e.Op, e.Path, e.cause)
}

func (e *ResourceError) Unwrap() error { return e.cause }

// StreamError reports a failure of the record source or the sink.
//
// The original underlying error can be accessed via errors.Unwrap.
type StreamError struct {
	Side  string // "source" or "sink"
	cause error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Side, e.cause)
}

func (e *StreamError) Unwrap() error { return e.cause }

// newResourceError wraps err, lifting Op and Path from a tempstore error.
func newResourceError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var re *ResourceError
	if errors.As(err, &re) {
		return err
	}
	var oe *tempstore.OpError
	if errors.As(err, &oe) {
		op, path = op+" ("+oe.Op+")", oe.Path
	}
	return &ResourceError{Op: op, Path: path, cause: err}
}
