// Package spill serializes chunks of records to byte streams and reads them back.
//
// # Format
//
// A chunk is stored as
//
//	[count: uint32 LE] ([length: uint32 LE] [record bytes]) * count
//
// with no header beyond the count and no checksum. When compression is enabled
// the same bytes are wrapped in a single LZ4 or ZSTD frame.
//
// A Decoder yields exactly count records and then io.EOF, regardless of any
// bytes that follow; fewer records than declared is ErrCorrupt.
package spill

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/hupe1980/seqrand/codec"
)

var (
	// ErrCorrupt reports a truncated or malformed chunk.
	ErrCorrupt = errors.New("corrupt spill chunk")
	// ErrMarshal reports a record the codec could not encode.
	ErrMarshal = errors.New("record marshal failed")
	// ErrChunkTooLarge is returned when a chunk exceeds the uint32 count prefix.
	ErrChunkTooLarge = errors.New("chunk exceeds maximum record count")
)

const (
	bufferSize = 64 << 10
	// MaxRecordSize bounds a single serialized record; larger length prefixes
	// are treated as corruption rather than allocated.
	MaxRecordSize = 256 << 20
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Encode writes records to w in spill format and returns the number of bytes
// written to w. The compression frame and write buffer are always closed,
// including when a write fails part way.
func Encode[T any](w io.Writer, records []T, c codec.Codec[T], comp Compression) (n int64, err error) {
	if uint64(len(records)) > math.MaxUint32 {
		return 0, ErrChunkTooLarge
	}
	cw := &countingWriter{w: w}
	zw, err := newCompressor(cw, comp)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = cerr
		}
		n = cw.n
	}()

	bw := bufio.NewWriterSize(zw, bufferSize)
	if err := writeRecords(bw, records, c); err != nil {
		return 0, err
	}
	return 0, bw.Flush()
}

func writeRecords[T any](w *bufio.Writer, records []T, c codec.Codec[T]) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(records))) //nolint:gosec // checked by caller
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	scratch := make([]byte, 4, 256)
	for i, rec := range records {
		buf, err := codec.AppendMarshal(c, scratch[:4], rec)
		if err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrMarshal, i, err)
		}
		size := len(buf) - 4
		if size > MaxRecordSize {
			return fmt.Errorf("%w: record %d is %d bytes", ErrMarshal, i, size)
		}
		binary.LittleEndian.PutUint32(buf[:4], uint32(size)) //nolint:gosec
		if _, err := w.Write(buf); err != nil {
			return err
		}
		scratch = buf[:0]
	}
	return nil
}

// Decoder is a forward-only, single-pass reader over one chunk.
//
// Next is guarded by a mutex, so a Decoder shared between goroutines yields
// each record exactly once. Re-reading requires a new Decoder over a fresh
// reader positioned at the start of the chunk.
type Decoder[T any] struct {
	mu    sync.Mutex
	codec codec.Codec[T]
	comp  Compression
	src   *decompressor
	r     *bufio.Reader
	count uint32
	read  uint32
	buf   []byte
	err   error
}

// NewDecoder reads the count prefix from r and returns a Decoder for the chunk.
// The caller keeps ownership of r.
func NewDecoder[T any](r io.Reader, c codec.Codec[T], comp Compression) (*Decoder[T], error) {
	src, err := newDecompressor(r, comp)
	if err != nil {
		return nil, err
	}
	d := &Decoder[T]{
		codec: c,
		comp:  comp,
		src:   src,
		r:     bufio.NewReaderSize(src, bufferSize),
	}
	var hdr [4]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		src.release()
		return nil, d.wrapReadErr("count prefix", err)
	}
	d.count = binary.LittleEndian.Uint32(hdr[:])
	return d, nil
}

// Count returns the number of records declared by the chunk.
func (d *Decoder[T]) Count() int { return int(d.count) }

// Remaining returns the number of records not yet produced.
func (d *Decoder[T]) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.count - d.read)
}

// Next returns the next record, or io.EOF after Count records.
// Errors are sticky.
func (d *Decoder[T]) Next() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	if d.err != nil {
		return zero, d.err
	}
	if d.read >= d.count {
		return zero, io.EOF
	}

	var hdr [4]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		d.err = d.wrapReadErr(fmt.Sprintf("record %d length", d.read), err)
		return zero, d.err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size > MaxRecordSize {
		d.err = fmt.Errorf("%w: record %d declares %d bytes", ErrCorrupt, d.read, size)
		return zero, d.err
	}
	if cap(d.buf) < int(size) {
		d.buf = make([]byte, size)
	}
	d.buf = d.buf[:size]
	if _, err := io.ReadFull(d.r, d.buf); err != nil {
		d.err = d.wrapReadErr(fmt.Sprintf("record %d body", d.read), err)
		return zero, d.err
	}
	v, err := d.codec.Unmarshal(d.buf)
	if err != nil {
		d.err = fmt.Errorf("%w: record %d: %w", ErrCorrupt, d.read, err)
		return zero, d.err
	}
	d.read++
	return v, nil
}

// Close releases decompression resources. It does not close the source reader.
func (d *Decoder[T]) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.src != nil {
		d.src.release()
		d.src = nil
	}
	if d.err == nil {
		d.err = errors.New("decoder closed")
	}
	return nil
}

// wrapReadErr classifies a read failure: running out of bytes, or any error
// surfaced by a decompressor, is corruption; other errors are plain I/O.
func (d *Decoder[T]) wrapReadErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s: %w", ErrCorrupt, what, err)
	}
	var cause *sourceError
	if d.comp != CompressionNone && !errors.As(err, &cause) {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, what, err)
	}
	return fmt.Errorf("read %s: %w", what, err)
}
