package fastq

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
)

const bufferSize = 1 << 20

// Reader reads SequenceReads from one FASTQ file or from a pair of mate files
// in lock-step.
type Reader struct {
	parsers []*parser
	closers []io.Closer
	raw     *countingReader
	size    int64
	count   atomic.Int64
}

// NewReader opens one (single-end) or two (paired-end) FASTQ files.
func NewReader(paths ...string) (*Reader, error) {
	if err := checkArity(len(paths)); err != nil {
		return nil, err
	}
	r := &Reader{size: -1}
	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.closers = append(r.closers, f)

		var src io.Reader = f
		if i == 0 {
			if info, err := f.Stat(); err == nil {
				r.size = info.Size()
			}
			r.raw = &countingReader{r: f}
			src = r.raw
		}
		if strings.HasSuffix(path, ".gz") {
			zr, err := gzip.NewReader(bufio.NewReaderSize(src, bufferSize))
			if err != nil {
				_ = r.Close()
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			r.closers = append(r.closers, zr)
			src = zr
		}
		r.parsers = append(r.parsers, newParser(src, path))
	}
	return r, nil
}

// NewStreamReader reads uncompressed FASTQ from one or two streams.
func NewStreamReader(rs ...io.Reader) (*Reader, error) {
	if err := checkArity(len(rs)); err != nil {
		return nil, err
	}
	r := &Reader{size: -1}
	for i, src := range rs {
		r.parsers = append(r.parsers, newParser(src, fmt.Sprintf("stream %d", i+1)))
	}
	return r, nil
}

// Mates returns 1 for single-end and 2 for paired-end input.
func (r *Reader) Mates() int { return len(r.parsers) }

// Count returns the number of records read so far.
func (r *Reader) Count() int64 { return r.count.Load() }

// Progress reports how many bytes of the first input file were consumed and
// its total size. total is -1 for streams.
func (r *Reader) Progress() (done, total int64) {
	if r.raw == nil {
		return 0, -1
	}
	return r.raw.n.Load(), r.size
}

// Next returns the next record, io.EOF at the end of input.
func (r *Reader) Next(ctx context.Context) (SequenceRead, error) {
	if err := ctx.Err(); err != nil {
		return SequenceRead{}, err
	}
	mates := make([]Read, len(r.parsers))
	eof := 0
	for i, p := range r.parsers {
		read, err := p.next()
		if errors.Is(err, io.EOF) {
			eof++
			continue
		}
		if err != nil {
			return SequenceRead{}, err
		}
		mates[i] = read
	}
	switch {
	case eof == len(r.parsers):
		return SequenceRead{}, io.EOF
	case eof > 0:
		return SequenceRead{}, fmt.Errorf("%w after %d records", ErrMateMismatch, r.count.Load())
	}
	r.count.Add(1)
	return SequenceRead{Mates: mates}, nil
}

// Close closes all underlying files.
func (r *Reader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// parser splits a FASTQ stream into records.
type parser struct {
	br   *bufio.Reader
	name string
	line int
}

func newParser(r io.Reader, name string) *parser {
	return &parser{br: bufio.NewReaderSize(r, bufferSize), name: name}
}

func (p *parser) readLine() ([]byte, error) {
	line, err := p.br.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	p.line++
	line = bytes.TrimRight(line, "\r\n")
	return line, nil
}

func (p *parser) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s line %d: %s", ErrMalformed, p.name, p.line, fmt.Sprintf(format, args...))
}

func (p *parser) next() (Read, error) {
	var header []byte
	for {
		line, err := p.readLine()
		if err != nil {
			return Read{}, err
		}
		if len(line) > 0 {
			header = line
			break
		}
	}
	if header[0] != '@' {
		return Read{}, p.malformed("header must start with '@'")
	}

	seq, err := p.readLine()
	if err != nil {
		return Read{}, p.truncated(err)
	}
	plus, err := p.readLine()
	if err != nil {
		return Read{}, p.truncated(err)
	}
	if len(plus) == 0 || plus[0] != '+' {
		return Read{}, p.malformed("separator must start with '+'")
	}
	qual, err := p.readLine()
	if err != nil {
		return Read{}, p.truncated(err)
	}

	read := Read{
		Name: string(header[1:]),
		Seq:  bytes.Clone(seq),
		Qual: bytes.Clone(qual),
	}
	if err := read.Validate(); err != nil {
		return Read{}, fmt.Errorf("%s line %d: %w", p.name, p.line, err)
	}
	return read, nil
}

func (p *parser) truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return p.malformed("truncated record")
	}
	return err
}
