// Package fastq reads and writes single-end and paired-end FASTQ files.
//
// Files ending in ".gz" are transparently gzip-compressed. A SequenceRead
// holds one mate for single-end data and two for paired-end data; Codec
// serializes it compactly for spilling.
package fastq

import (
	"errors"
	"fmt"
)

var (
	// ErrArity is returned for a file count other than one or two, or when a
	// record's mate count does not match the writer.
	ErrArity = errors.New("fastq: expected one or two mates")
	// ErrMalformed is returned for input that is not valid FASTQ.
	ErrMalformed = errors.New("fastq: malformed record")
	// ErrMateMismatch is returned when paired files contain different numbers
	// of records.
	ErrMateMismatch = errors.New("fastq: paired files have different lengths")
)

// Read is one FASTQ record. Name is the header line without the leading '@'.
type Read struct {
	Name string
	Seq  []byte
	Qual []byte
}

// Validate checks that sequence and quality have equal length.
func (r Read) Validate() error {
	if len(r.Seq) != len(r.Qual) {
		return fmt.Errorf("%w: %q has %d bases and %d quality scores", ErrMalformed, r.Name, len(r.Seq), len(r.Qual))
	}
	return nil
}

// SequenceRead is a single-end read or a read pair.
type SequenceRead struct {
	Mates []Read
}

// Single returns a single-end SequenceRead.
func Single(r Read) SequenceRead { return SequenceRead{Mates: []Read{r}} }

// Pair returns a paired-end SequenceRead.
func Pair(r1, r2 Read) SequenceRead { return SequenceRead{Mates: []Read{r1, r2}} }

// Paired reports whether the record has two mates.
func (s SequenceRead) Paired() bool { return len(s.Mates) == 2 }

// Name returns the name of the first mate.
func (s SequenceRead) Name() string {
	if len(s.Mates) == 0 {
		return ""
	}
	return s.Mates[0].Name
}

func checkArity(n int) error {
	if n != 1 && n != 2 {
		return fmt.Errorf("%w, got %d", ErrArity, n)
	}
	return nil
}
