package seqrand

import (
	"context"
	"io"
	"sync"
)

// Source produces records. Next returns io.EOF once the source is exhausted.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Sink consumes records in output order.
type Sink[T any] interface {
	Write(rec T) error
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context) (T, error)

// Next implements Source.
func (f SourceFunc[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

// SinkFunc adapts a function to Sink.
type SinkFunc[T any] func(rec T) error

// Write implements Sink.
func (f SinkFunc[T]) Write(rec T) error { return f(rec) }

// SliceSource yields the elements of a slice in order.
type SliceSource[T any] struct {
	mu    sync.Mutex
	items []T
	pos   int
}

// NewSliceSource returns a Source over items. The slice is not copied.
func NewSliceSource[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// Next implements Source.
func (s *SliceSource[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.items) {
		return zero, io.EOF
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

// SliceSink collects records into memory.
type SliceSink[T any] struct {
	mu    sync.Mutex
	items []T
}

// Write implements Sink.
func (s *SliceSink[T]) Write(rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
	return nil
}

// Items returns the collected records.
func (s *SliceSink[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Collect drains out into a slice and closes it.
func Collect[T any](ctx context.Context, out *Output[T]) ([]T, error) {
	var items []T
	for {
		rec, err := out.Next(ctx)
		if err == io.EOF {
			return items, out.Close(ctx)
		}
		if err != nil {
			_ = out.Close(ctx)
			return items, err
		}
		items = append(items, rec)
	}
}
