package fastq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Writer writes SequenceReads to one or two FASTQ outputs.
type Writer struct {
	outs    []*bufio.Writer
	closers []io.Closer
	count   int64
}

// NewWriter creates one (single-end) or two (paired-end) FASTQ files,
// truncating existing ones. Paths ending in ".gz" are gzip-compressed.
func NewWriter(paths ...string) (*Writer, error) {
	if err := checkArity(len(paths)); err != nil {
		return nil, err
	}
	w := &Writer{}
	for _, path := range paths {
		f, err := os.Create(path)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		var dst io.Writer = f
		var closers []io.Closer
		if strings.HasSuffix(path, ".gz") {
			zw := gzip.NewWriter(f)
			dst = zw
			closers = append(closers, zw)
		}
		// Close order per output: gzip stream first, then the file.
		w.closers = append(w.closers, append(closers, f)...)
		w.outs = append(w.outs, bufio.NewWriterSize(dst, bufferSize))
	}
	return w, nil
}

// NewStreamWriter writes uncompressed FASTQ to one or two streams. Close
// flushes but does not close them.
func NewStreamWriter(ws ...io.Writer) (*Writer, error) {
	if err := checkArity(len(ws)); err != nil {
		return nil, err
	}
	w := &Writer{}
	for _, dst := range ws {
		w.outs = append(w.outs, bufio.NewWriterSize(dst, bufferSize))
	}
	return w, nil
}

// Count returns the number of records written.
func (w *Writer) Count() int64 { return w.count }

// Write writes one record; its mate count must match the number of outputs.
func (w *Writer) Write(rec SequenceRead) error {
	if len(rec.Mates) != len(w.outs) {
		return fmt.Errorf("%w: record %q has %d mates, writer has %d outputs", ErrArity, rec.Name(), len(rec.Mates), len(w.outs))
	}
	for i, m := range rec.Mates {
		if err := writeRead(w.outs[i], m); err != nil {
			return err
		}
	}
	w.count++
	return nil
}

func writeRead(bw *bufio.Writer, r Read) error {
	_ = bw.WriteByte('@')
	_, _ = bw.WriteString(r.Name)
	_ = bw.WriteByte('\n')
	_, _ = bw.Write(r.Seq)
	_, _ = bw.WriteString("\n+\n")
	_, _ = bw.Write(r.Qual)
	// bufio.Writer errors are sticky; the last call reports any of them.
	return bw.WriteByte('\n')
}

// Close flushes and closes all outputs.
func (w *Writer) Close() error {
	var errs []error
	for _, bw := range w.outs {
		if err := bw.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.outs, w.closers = nil, nil
	return errors.Join(errs...)
}
