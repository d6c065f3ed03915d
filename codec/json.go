package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It works for typical structs, maps and slices. Time, complex numbers,
// funcs and channels may not round-trip.
type JSON[T any] struct{}

// Marshal encodes the value to JSON.
func (JSON[T]) Marshal(v T) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes JSON data into a new T.
func (JSON[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// Name returns the unique name of the codec ("json").
func (JSON[T]) Name() string { return "json" }
