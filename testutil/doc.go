// Package testutil provides testing utilities for seqrand.
//
// This package is intended for use in tests and benchmarks only.
//
// # Synthetic Reads
//
//	rng := testutil.NewRNG(seed)
//	recs := rng.PairedReads(1000, 50, 150)
//	paths := testutil.WriteFASTQ(t, t.TempDir(), "in", ".fastq.gz", recs)
//	back := testutil.ReadFASTQ(t, paths...)
package testutil
