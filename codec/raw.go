package codec

// Bytes is an identity codec for []byte records.
type Bytes struct{}

func (Bytes) Marshal(v []byte) ([]byte, error) { return v, nil }

// Unmarshal copies data; the caller's buffer is reused.
func (Bytes) Unmarshal(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (Bytes) Name() string { return "bytes" }

func (Bytes) Append(dst []byte, v []byte) ([]byte, error) { return append(dst, v...), nil }

// String is an identity codec for string records.
type String struct{}

func (String) Marshal(v string) ([]byte, error)      { return []byte(v), nil }
func (String) Unmarshal(data []byte) (string, error) { return string(data), nil }
func (String) Name() string                          { return "string" }

func (String) Append(dst []byte, v string) ([]byte, error) { return append(dst, v...), nil }
