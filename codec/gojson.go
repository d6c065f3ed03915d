package codec

import gojson "github.com/goccy/go-json"

// GoJSON is a JSON codec backed by github.com/goccy/go-json.
// It is the default codec for record types without a dedicated binary codec.
type GoJSON[T any] struct{}

// Marshal encodes the value to JSON.
func (GoJSON[T]) Marshal(v T) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal decodes JSON data into a new T.
func (GoJSON[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := gojson.Unmarshal(data, &v)
	return v, err
}

// Name returns the unique name of the codec ("go-json").
func (GoJSON[T]) Name() string { return "go-json" }

// Append encodes the value to JSON and appends it to dst.
func (GoJSON[T]) Append(dst []byte, v T) ([]byte, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
