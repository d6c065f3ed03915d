package seqrand_test

import (
	"context"
	"slices"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/seqrand"
	"github.com/hupe1980/seqrand/blobstore"
	"github.com/hupe1980/seqrand/testutil"
)

// chiSquare returns the statistic and its p-value for observed counts against
// a uniform expectation.
func chiSquare(counts []int) (float64, float64) {
	total := 0
	for _, c := range counts {
		total += c
	}
	expected := float64(total) / float64(len(counts))
	var x2 float64
	for _, c := range counts {
		d := float64(c) - expected
		x2 += d * d / expected
	}
	dist := distuv.ChiSquared{K: float64(len(counts) - 1)}
	return x2, dist.Survival(x2)
}

func TestShuffle_PositionsUniform(t *testing.T) {
	const (
		chunkSize = 8
		runs      = 2000
	)
	input := testutil.Sequence(chunkSize)
	store := blobstore.NewMemoryStore()

	first := make([]int, chunkSize)
	last := make([]int, chunkSize)
	positions := make(stats.Float64Data, 0, runs)

	for seed := range uint64(runs) {
		s, err := seqrand.New(ints,
			seqrand.WithSeed(seed),
			seqrand.WithChunkSize(chunkSize),
			seqrand.WithSpillStore(store, "uniform"),
		)
		require.NoError(t, err)

		sink := &seqrand.SliceSink[int]{}
		require.NoError(t, s.Run(context.Background(), seqrand.NewSliceSource(input), sink))

		out := sink.Items()
		p0 := slices.Index(out, 0)
		first[p0]++
		last[slices.Index(out, chunkSize-1)]++
		positions = append(positions, float64(p0))
	}
	assert.Equal(t, 0, store.Len())

	for name, counts := range map[string][]int{"first": first, "last": last} {
		x2, p := chiSquare(counts)
		assert.Greater(t, p, 0.001, "%s record: chi-square %.2f, counts %v", name, x2, counts)
	}

	mean, err := stats.Mean(positions)
	require.NoError(t, err)
	assert.InDelta(t, float64(chunkSize-1)/2, mean, 0.25)

	sd, err := stats.StandardDeviation(positions)
	require.NoError(t, err)
	// Discrete uniform on 0..7.
	assert.InDelta(t, 2.29, sd, 0.2)
}

func TestShuffle_DerivedSeedsDiffer(t *testing.T) {
	// Chunks of one run must not repeat the same permutation.
	const chunkSize = 16
	out := shuffleInts(t, testutil.Sequence(chunkSize*20),
		seqrand.WithSeed(99),
		seqrand.WithChunkSize(chunkSize),
		seqrand.WithSpillStore(blobstore.NewMemoryStore(), "derive"),
	)

	seen := make(map[string]bool)
	for i := 0; i < len(out); i += chunkSize {
		perm := make([]byte, chunkSize)
		for j, v := range out[i : i+chunkSize] {
			perm[j] = byte(v - i)
		}
		assert.False(t, seen[string(perm)], "chunk %d repeats a permutation", i/chunkSize)
		seen[string(perm)] = true
	}
}
