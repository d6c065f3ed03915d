// Package prometheus exports shuffle metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc := seqprom.NewCollector(reg)
//	s, _ := seqrand.New(c, seqrand.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/seqrand"
)

const namespace = "seqrand"

var _ seqrand.MetricsCollector = (*Collector)(nil)

// Collector implements seqrand.MetricsCollector with Prometheus metrics.
type Collector struct {
	chunks       *prometheus.CounterVec
	records      *prometheus.CounterVec
	spillBytes   prometheus.Counter
	chunkLatency *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runLatency   prometheus.Histogram
}

// NewCollector creates the metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunks processed, by phase and status",
		}, []string{"phase", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records persisted and replayed",
		}, []string{"phase"}),
		spillBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spill_bytes_total",
			Help:      "Bytes written to temp storage",
		}),
		chunkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Time to persist or replay one chunk",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed shuffle runs, by status",
		}, []string{"status"}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of shuffle runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
	}
	reg.MustRegister(c.chunks, c.records, c.spillBytes, c.chunkLatency, c.runs, c.runLatency)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordChunkPersisted implements seqrand.MetricsCollector.
func (c *Collector) RecordChunkPersisted(records int, bytes int64, d time.Duration, err error) {
	c.chunks.WithLabelValues("persist", status(err)).Inc()
	c.chunkLatency.WithLabelValues("persist").Observe(d.Seconds())
	if err != nil {
		return
	}
	c.records.WithLabelValues("persist").Add(float64(records))
	c.spillBytes.Add(float64(bytes))
}

// RecordChunkReplayed implements seqrand.MetricsCollector.
func (c *Collector) RecordChunkReplayed(records int, d time.Duration) {
	c.chunks.WithLabelValues("replay", "success").Inc()
	c.chunkLatency.WithLabelValues("replay").Observe(d.Seconds())
	c.records.WithLabelValues("replay").Add(float64(records))
}

// RecordRun implements seqrand.MetricsCollector.
func (c *Collector) RecordRun(_ int64, _ int, d time.Duration, err error) {
	c.runs.WithLabelValues(status(err)).Inc()
	c.runLatency.Observe(d.Seconds())
}
