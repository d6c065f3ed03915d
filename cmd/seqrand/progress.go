package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/seqrand"
	"github.com/hupe1980/seqrand/fastq"
)

// startProgress prints a progress line every interval until the returned
// function is called.
func startProgress(ctx context.Context, w io.Writer, interval time.Duration,
	r *fastq.Reader, s *seqrand.Shuffler[fastq.SequenceRead],
) func() {
	if interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Fprintln(w, progressLine(s.Progress(), r))
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func progressLine(p seqrand.Progress, r *fastq.Reader) string {
	switch p.State {
	case seqrand.StateReading, seqrand.StateDraining:
		done, total := r.Progress()
		if total > 0 {
			return fmt.Sprintf("Randomizing chunks: %d reads, %d chunks written (%.1f%%)",
				p.Consumed, p.ChunksPersisted, 100*float64(done)/float64(total))
		}
		return fmt.Sprintf("Randomizing chunks: %d reads, %d chunks written", p.Consumed, p.ChunksPersisted)
	case seqrand.StateReplaying:
		pct := 0.0
		if p.Consumed > 0 {
			pct = 100 * float64(p.Emitted) / float64(p.Consumed)
		}
		return fmt.Sprintf("Writing result: %d of %d reads (%.1f%%)", p.Emitted, p.Consumed, pct)
	default:
		return fmt.Sprintf("State: %s", p.State)
	}
}

// serveMetrics exposes reg on addr under /metrics until the returned function
// is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *seqrand.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
