// Package codec centralizes record serialization for spilled chunks.
//
// The shuffle engine is generic over the record type; a Codec[T] supplies the
// byte form of each record. Codec selection is a property of a single run:
// spill files are private to the run that wrote them, so codecs do not need to
// be stable across versions.
package codec

import "fmt"

// Codec encodes/decodes records of type T.
// Implementations must be safe for concurrent use. Unmarshal must not retain
// data after it returns; the caller reuses the buffer.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
	Name() string
}

// Appender is implemented by codecs that can encode into a caller buffer,
// avoiding one allocation per record.
type Appender[T any] interface {
	Append(dst []byte, v T) ([]byte, error)
}

// AppendMarshal encodes v onto dst using c's Append method when available.
func AppendMarshal[T any](c Codec[T], dst []byte, v T) ([]byte, error) {
	if a, ok := c.(Appender[T]); ok {
		return a.Append(dst, v)
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

// Default returns the default codec for T.
func Default[T any]() Codec[T] {
	return GoJSON[T]{}
}

// ByName returns a built-in generic codec by its stable name.
func ByName[T any](name string) (Codec[T], bool) {
	switch name {
	case "json":
		return JSON[T]{}, true
	case "go-json":
		return GoJSON[T]{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests.
func MustMarshal[T any](c Codec[T], v T) []byte {
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
