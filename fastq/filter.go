package fastq

import (
	"context"
	"sync/atomic"
)

// LengthFilter accepts reads whose sequence is at least MinLength bases long.
type LengthFilter struct {
	MinLength int
}

// Accept reports whether r passes the filter.
func (f LengthFilter) Accept(r Read) bool {
	return len(r.Seq) >= f.MinLength
}

// AcceptAll reports whether every mate of rec passes the filter.
func (f LengthFilter) AcceptAll(rec SequenceRead) bool {
	for _, m := range rec.Mates {
		if !f.Accept(m) {
			return false
		}
	}
	return true
}

// Source is a pull-based stream of SequenceReads.
type Source interface {
	Next(ctx context.Context) (SequenceRead, error)
}

// FilteredSource drops records rejected by a LengthFilter. A pair is dropped
// when either mate is too short.
type FilteredSource struct {
	src     Source
	filter  LengthFilter
	dropped atomic.Int64
}

// FilterSource wraps src with f.
func FilterSource(src Source, f LengthFilter) *FilteredSource {
	return &FilteredSource{src: src, filter: f}
}

// Next returns the next accepted record.
func (s *FilteredSource) Next(ctx context.Context) (SequenceRead, error) {
	for {
		rec, err := s.src.Next(ctx)
		if err != nil {
			return rec, err
		}
		if s.filter.AcceptAll(rec) {
			return rec, nil
		}
		s.dropped.Add(1)
	}
}

// Dropped returns the number of records rejected so far.
func (s *FilteredSource) Dropped() int64 { return s.dropped.Load() }
