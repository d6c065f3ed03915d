// Package chunk buffers records into fixed-capacity chunks and permutes them.
package chunk

import (
	"errors"

	"github.com/hupe1980/seqrand/internal/rng"
)

// ErrInvalidCapacity is returned for a non-positive chunk capacity.
var ErrInvalidCapacity = errors.New("chunk capacity must be positive")

// initialCap bounds the up-front allocation; buffers grow on demand so a huge
// capacity over a small input does not reserve memory it never uses.
const initialCap = 4096

// Accumulator buffers records until a chunk is full.
// Not safe for concurrent use.
type Accumulator[T any] struct {
	capacity int
	buf      []T
}

// NewAccumulator creates an Accumulator emitting chunks of capacity records.
func NewAccumulator[T any](capacity int) (*Accumulator[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Accumulator[T]{capacity: capacity}, nil
}

// Offer buffers rec. When the buffer reaches capacity it returns the full
// chunk and true; ownership of the slice passes to the caller.
func (a *Accumulator[T]) Offer(rec T) ([]T, bool) {
	if a.buf == nil {
		a.buf = make([]T, 0, min(a.capacity, initialCap))
	}
	a.buf = append(a.buf, rec)
	if len(a.buf) < a.capacity {
		return nil, false
	}
	full := a.buf
	a.buf = nil
	return full, true
}

// Flush returns the buffered partial chunk, or false if nothing is buffered.
func (a *Accumulator[T]) Flush() ([]T, bool) {
	if len(a.buf) == 0 {
		return nil, false
	}
	rest := a.buf
	a.buf = nil
	return rest, true
}

// Len returns the number of buffered records.
func (a *Accumulator[T]) Len() int { return len(a.buf) }

// Cap returns the chunk capacity.
func (a *Accumulator[T]) Cap() int { return a.capacity }

// Shuffle permutes records in place with the Fisher-Yates algorithm,
// drawing len(records)-1 values from g.
func Shuffle[T any](records []T, g *rng.Generator) {
	for i := len(records) - 1; i > 0; i-- {
		j := g.IntN(i + 1)
		records[i], records[j] = records[j], records[i]
	}
}
