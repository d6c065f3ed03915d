package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Reproducible(t *testing.T) {
	a := NewRNG(4711).Reads(10, 20, 40)
	b := NewRNG(4711).Reads(10, 20, 40)
	assert.Equal(t, a, b)

	rng := NewRNG(4711)
	first := rng.Uint64()
	rng.Reset()
	assert.Equal(t, first, rng.Uint64())
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestRNG_Reads(t *testing.T) {
	recs := NewRNG(1).PairedReads(50, 30, 60)
	require.Len(t, recs, 50)
	for _, rec := range recs {
		require.True(t, rec.Paired())
		for _, m := range rec.Mates {
			assert.NoError(t, m.Validate())
			assert.GreaterOrEqual(t, len(m.Seq), 30)
			assert.LessOrEqual(t, len(m.Seq), 60)
			for _, b := range m.Seq {
				assert.Contains(t, bases, string(b))
			}
		}
	}
	assert.Equal(t, "read7/2", recs[7].Mates[1].Name)

	fixed := NewRNG(1).Read("x", 12, 12)
	assert.Len(t, fixed.Seq, 12)
}

func TestFASTQFiles(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{".fastq", ".fastq.gz"} {
		recs := NewRNG(2).PairedReads(20, 10, 20)
		paths := WriteFASTQ(t, dir, "sample", ext, recs)
		require.Len(t, paths, 2)
		assert.Equal(t, recs, ReadFASTQ(t, paths...))
	}
}

func TestSequence(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, Sequence(3))
	assert.Empty(t, Sequence(0))
}
