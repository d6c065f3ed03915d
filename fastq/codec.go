package fastq

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errShortBuffer = errors.New("fastq codec: short buffer")

// Codec is a compact binary codec for SequenceRead:
//
//	[mates: uint8] ([name len: uvarint][name][seq len: uvarint][seq][qual len: uvarint][qual]) * mates
//
// It implements codec.Codec[SequenceRead] and codec.Appender[SequenceRead].
type Codec struct{}

// Name returns "fastq".
func (Codec) Name() string { return "fastq" }

// Marshal encodes rec.
func (c Codec) Marshal(rec SequenceRead) ([]byte, error) {
	return c.Append(nil, rec)
}

// Append encodes rec onto dst.
func (Codec) Append(dst []byte, rec SequenceRead) ([]byte, error) {
	if len(rec.Mates) > 255 {
		return nil, fmt.Errorf("fastq codec: %d mates", len(rec.Mates))
	}
	dst = append(dst, byte(len(rec.Mates)))
	for _, m := range rec.Mates {
		dst = binary.AppendUvarint(dst, uint64(len(m.Name)))
		dst = append(dst, m.Name...)
		dst = binary.AppendUvarint(dst, uint64(len(m.Seq)))
		dst = append(dst, m.Seq...)
		dst = binary.AppendUvarint(dst, uint64(len(m.Qual)))
		dst = append(dst, m.Qual...)
	}
	return dst, nil
}

// Unmarshal decodes a record. The result does not alias data.
func (Codec) Unmarshal(data []byte) (SequenceRead, error) {
	if len(data) == 0 {
		return SequenceRead{}, errShortBuffer
	}
	n := int(data[0])
	data = data[1:]

	mates := make([]Read, n)
	for i := range mates {
		var name, seq, qual []byte
		var err error
		if name, data, err = field(data); err != nil {
			return SequenceRead{}, err
		}
		if seq, data, err = field(data); err != nil {
			return SequenceRead{}, err
		}
		if qual, data, err = field(data); err != nil {
			return SequenceRead{}, err
		}
		mates[i] = Read{
			Name: string(name),
			Seq:  clone(seq),
			Qual: clone(qual),
		}
	}
	if len(data) != 0 {
		return SequenceRead{}, fmt.Errorf("fastq codec: %d trailing bytes", len(data))
	}
	return SequenceRead{Mates: mates}, nil
}

func field(data []byte) (value, rest []byte, err error) {
	l, k := binary.Uvarint(data)
	if k <= 0 || uint64(len(data)-k) < l {
		return nil, nil, errShortBuffer
	}
	end := k + int(l) //nolint:gosec // bounded by len(data)
	return data[k:end], data[end:], nil
}

// clone copies b into a non-nil slice.
func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
