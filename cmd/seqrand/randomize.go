package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/seqrand"
	"github.com/hupe1980/seqrand/fastq"
	seqprom "github.com/hupe1980/seqrand/metrics/prometheus"
)

type randomizeConfig struct {
	seed         uint64
	chunkSize    int
	tmpDir       string
	spillURL     string
	workers      int
	compression  string
	ioLimit      int64
	minFreeBytes uint64
	minLength    int
	report       time.Duration
	logLevel     string
	logFormat    string
	metricsAddr  string
	force        bool
}

func newRandomizeCmd() *cobra.Command {
	var cfg randomizeConfig

	cmd := &cobra.Command{
		Use:   "randomize <in> [<in_R2>] <out> [<out_R2>]",
		Short: "Shuffle the reads of a FASTQ file or file pair",
		Long: `Shuffle the reads of single-end (2 paths) or paired-end (4 paths) FASTQ
files. Files ending in .gz are read and written gzip-compressed.

Reads are shuffled in chunks of --chunk reads; a read never moves out of its
chunk. The same --seed and --chunk always give the same output.`,
		Example: `  seqrand randomize reads.fq.gz shuffled.fq.gz
  seqrand randomize -s 42 -c 1000000 in_R1.fq in_R2.fq out_R1.fq out_R2.fq
  seqrand randomize --spill-url s3://scratch/seqrand in.fq out.fq`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 && len(args) != 4 {
				return fmt.Errorf("%w: expected 2 or 4 paths, got %d", seqrand.ErrInvalidConfig, len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := len(args) / 2
			return runRandomize(cmd.Context(), cfg, args[:n], args[n:], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.Uint64VarP(&cfg.seed, "seed", "s", 0, "Random seed; 0 uses the clock")
	f.IntVarP(&cfg.chunkSize, "chunk", "c", seqrand.DefaultChunkSize, "Reads shuffled together in memory")
	f.StringVar(&cfg.tmpDir, "tmp-dir", "", "Directory for temporary chunk files (default system temp dir)")
	f.StringVar(&cfg.spillURL, "spill-url", "", "Spill to object storage: s3://bucket/prefix or minio://host:port/bucket/prefix")
	f.IntVar(&cfg.workers, "workers", 1, "Chunks shuffled and written concurrently")
	f.StringVar(&cfg.compression, "compression", "none", "Chunk compression: none, lz4 or zstd")
	f.Int64Var(&cfg.ioLimit, "io-limit", 0, "Spill throughput limit in bytes per second; 0 is unlimited")
	f.Uint64Var(&cfg.minFreeBytes, "min-free-bytes", 0, "Fail early when the temp directory has less free space")
	f.IntVar(&cfg.minLength, "min-length", 0, "Drop reads (or pairs) shorter than this")
	f.DurationVar(&cfg.report, "report", 10*time.Second, "Progress report interval; 0 disables")
	f.StringVar(&cfg.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	f.StringVar(&cfg.logFormat, "log-format", "text", "Log format: text or json")
	f.StringVar(&cfg.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	f.BoolVarP(&cfg.force, "force", "f", false, "Overwrite existing output files")

	return cmd
}

func runRandomize(ctx context.Context, cfg randomizeConfig, inputs, outputs []string, stdout, stderr io.Writer) error {
	if err := checkPaths(inputs, outputs, cfg.force); err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg.logLevel, cfg.logFormat)
	if err != nil {
		return err
	}
	opts, err := cfg.options(ctx, logger)
	if err != nil {
		return err
	}

	if cfg.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, seqrand.WithMetricsCollector(seqprom.NewCollector(reg)))
		stopMetrics, err := serveMetrics(cfg.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	s, err := seqrand.New[fastq.SequenceRead](fastq.Codec{}, opts...)
	if err != nil {
		return err
	}

	reader, err := fastq.NewReader(inputs...)
	if err != nil {
		return err
	}
	defer reader.Close()

	var src seqrand.Source[fastq.SequenceRead] = reader
	var filtered *fastq.FilteredSource
	if cfg.minLength > 0 {
		filtered = fastq.FilterSource(reader, fastq.LengthFilter{MinLength: cfg.minLength})
		src = filtered
	}

	writer, err := fastq.NewWriter(outputs...)
	if err != nil {
		return err
	}

	stopProgress := startProgress(ctx, stderr, cfg.report, reader, s)
	runErr := s.Run(ctx, src, writer)
	stopProgress()

	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		removeAll(outputs)
		return runErr
	}

	fmt.Fprintf(stdout, "Randomized %d reads in %d chunks (seed %d)\n",
		writer.Count(), s.Progress().ChunksReplayed, s.Seed())
	if filtered != nil {
		fmt.Fprintf(stdout, "Dropped %d reads shorter than %d\n", filtered.Dropped(), cfg.minLength)
	}
	return nil
}

// options translates the flags into Shuffler options.
func (cfg randomizeConfig) options(ctx context.Context, logger *seqrand.Logger) ([]seqrand.Option, error) {
	comp, err := seqrand.ParseCompression(cfg.compression)
	if err != nil {
		return nil, err
	}
	opts := []seqrand.Option{
		seqrand.WithChunkSize(cfg.chunkSize),
		seqrand.WithWorkers(cfg.workers),
		seqrand.WithCompression(comp),
		seqrand.WithIOLimit(cfg.ioLimit),
		seqrand.WithMinFreeBytes(cfg.minFreeBytes),
		seqrand.WithLogger(logger),
	}
	// 0 keeps the clock seed.
	if cfg.seed != 0 {
		opts = append(opts, seqrand.WithSeed(cfg.seed))
	}

	if cfg.spillURL != "" {
		if cfg.tmpDir != "" {
			return nil, fmt.Errorf("%w: --tmp-dir and --spill-url are mutually exclusive", seqrand.ErrInvalidConfig)
		}
		store, prefix, err := openSpillStore(ctx, cfg.spillURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, seqrand.WithSpillStore(store, prefix))
	} else if cfg.tmpDir != "" {
		opts = append(opts, seqrand.WithTempDir(cfg.tmpDir))
	}
	return opts, nil
}

// checkPaths rejects outputs that would clobber an input or, without force,
// an existing file.
func checkPaths(inputs, outputs []string, force bool) error {
	abs := func(p string) string {
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
		return p
	}
	seen := make(map[string]bool, len(inputs)+len(outputs))
	for _, in := range inputs {
		seen[abs(in)] = true
	}
	for _, out := range outputs {
		a := abs(out)
		if seen[a] {
			return fmt.Errorf("%w: %s is used more than once", seqrand.ErrInvalidConfig, out)
		}
		seen[a] = true
		if force {
			continue
		}
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%w: output %s exists (use --force to overwrite)", seqrand.ErrInvalidConfig, out)
		}
	}
	return nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func newLogger(w io.Writer, level, format string) (*seqrand.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", seqrand.ErrInvalidConfig, level)
	}
	switch strings.ToLower(format) {
	case "text", "":
		return seqrand.NewTextLogger(w, lvl), nil
	case "json":
		return seqrand.NewJSONLogger(w, lvl), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", seqrand.ErrInvalidConfig, format)
	}
}
