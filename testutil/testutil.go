package testutil

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqrand/fastq"
)

const (
	bases = "ACGT"
	// Phred+33 scores 2..41.
	minQual = '#'
	maxQual = 'J'
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed) //nolint:staticcheck // reseeding keeps sequences reproducible
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

func (r *RNG) lengthLocked(minLen, maxLen int) int {
	if maxLen <= minLen {
		return minLen
	}
	return minLen + r.rand.Intn(maxLen-minLen+1)
}

func (r *RNG) readLocked(name string, n int) fastq.Read {
	seq := make([]byte, n)
	qual := make([]byte, n)
	for i := range seq {
		seq[i] = bases[r.rand.Intn(len(bases))]
		qual[i] = byte(minQual + r.rand.Intn(maxQual-minQual+1))
	}
	return fastq.Read{Name: name, Seq: seq, Qual: qual}
}

// Read returns a random read with a length in [minLen, maxLen].
func (r *RNG) Read(name string, minLen, maxLen int) fastq.Read {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked(name, r.lengthLocked(minLen, maxLen))
}

// Reads returns n single-end reads named "read<i>".
// Locks only once per call.
func (r *RNG) Reads(n, minLen, maxLen int) []fastq.SequenceRead {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fastq.SequenceRead, n)
	for i := range out {
		out[i] = fastq.Single(r.readLocked(fmt.Sprintf("read%d", i), r.lengthLocked(minLen, maxLen)))
	}
	return out
}

// PairedReads returns n read pairs named "read<i>/1" and "read<i>/2".
func (r *RNG) PairedReads(n, minLen, maxLen int) []fastq.SequenceRead {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fastq.SequenceRead, n)
	for i := range out {
		out[i] = fastq.Pair(
			r.readLocked(fmt.Sprintf("read%d/1", i), r.lengthLocked(minLen, maxLen)),
			r.readLocked(fmt.Sprintf("read%d/2", i), r.lengthLocked(minLen, maxLen)),
		)
	}
	return out
}

// Sequence returns the integers 0..n-1 in order.
func Sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// WriteFASTQ writes recs to files named name (single-end) or name_R1/name_R2
// (paired-end) in dir and returns their paths. A ".gz" ext compresses them.
func WriteFASTQ(t testing.TB, dir, name, ext string, recs []fastq.SequenceRead) []string {
	t.Helper()
	require.NotEmpty(t, recs)

	var paths []string
	if recs[0].Paired() {
		paths = []string{
			filepath.Join(dir, name+"_R1"+ext),
			filepath.Join(dir, name+"_R2"+ext),
		}
	} else {
		paths = []string{filepath.Join(dir, name+ext)}
	}

	w, err := fastq.NewWriter(paths...)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return paths
}

// ReadFASTQ reads all records from paths.
func ReadFASTQ(t testing.TB, paths ...string) []fastq.SequenceRead {
	t.Helper()
	return ReadAll[fastq.SequenceRead](t, mustOpen(t, paths...))
}

func mustOpen(t testing.TB, paths ...string) *fastq.Reader {
	t.Helper()
	r, err := fastq.NewReader(paths...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}
