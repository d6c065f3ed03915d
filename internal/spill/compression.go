package spill

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how a chunk body is compressed on the spill target.
type Compression uint8

const (
	// CompressionNone stores the framing bytes as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 wraps the chunk in one LZ4 frame (fast, good for local disks).
	CompressionLZ4 Compression = 1
	// CompressionZSTD wraps the chunk in one ZSTD frame (better ratio, good for remote spill).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", s)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// newCompressor returns a writer that compresses into w. Close must be called
// to emit the frame trailer; it does not close w.
func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZSTD:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// decompressor is a reader with an optional release hook.
type decompressor struct {
	io.Reader
	release func()
}

// sourceError marks a failure of the underlying reader, as opposed to a
// failure raised by the decompressor itself.
type sourceError struct{ err error }

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

type sourceReader struct{ r io.Reader }

func (s sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = &sourceError{err: err}
	}
	return n, err
}

func newDecompressor(r io.Reader, c Compression) (*decompressor, error) {
	r = sourceReader{r: r}
	switch c {
	case CompressionNone:
		return &decompressor{Reader: r, release: func() {}}, nil
	case CompressionLZ4:
		return &decompressor{Reader: lz4.NewReader(r), release: func() {}}, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return &decompressor{Reader: dec, release: dec.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}
