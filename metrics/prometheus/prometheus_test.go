package prometheus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqrand"
	"github.com/hupe1980/seqrand/codec"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordChunkPersisted(10, 120, time.Millisecond, nil)
	c.RecordChunkPersisted(10, 0, time.Millisecond, errors.New("boom"))
	c.RecordChunkReplayed(10, time.Millisecond)
	c.RecordRun(10, 1, time.Second, nil)

	assert.InDelta(t, 1, testutil.ToFloat64(c.chunks.WithLabelValues("persist", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.chunks.WithLabelValues("persist", "error")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(c.records.WithLabelValues("persist")), 0)
	assert.InDelta(t, 120, testutil.ToFloat64(c.spillBytes), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(c.records.WithLabelValues("replay")), 0)

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP seqrand_runs_total Completed shuffle runs, by status
# TYPE seqrand_runs_total counter
seqrand_runs_total{status="success"} 1
`), "seqrand_runs_total")
	require.NoError(t, err)
}

func TestCollector_Shuffle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	s, err := seqrand.New[int](codec.GoJSON[int]{},
		seqrand.WithSeed(1),
		seqrand.WithChunkSize(4),
		seqrand.WithTempDir(t.TempDir()),
		seqrand.WithMetricsCollector(c),
	)
	require.NoError(t, err)

	src := seqrand.NewSliceSource([]int{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, s.Run(context.Background(), src, &seqrand.SliceSink[int]{}))

	assert.InDelta(t, 3, testutil.ToFloat64(c.chunks.WithLabelValues("persist", "success")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(c.chunks.WithLabelValues("replay", "success")), 0)
	assert.InDelta(t, 9, testutil.ToFloat64(c.records.WithLabelValues("replay")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.runs.WithLabelValues("success")), 0)
	assert.Positive(t, testutil.ToFloat64(c.spillBytes))
}
