// Package seqrand randomizes the order of record streams that do not fit in
// memory.
//
// A Shuffler reads records from a Source, groups them into chunks of
// ChunkSize records, shuffles each chunk with Fisher-Yates and spills it to
// temp storage. Once the source is exhausted the chunks are replayed in the
// order they were created. The result is locally shuffled and globally
// chunk-ordered: a record is only ever moved within its own chunk.
//
// # Quick Start
//
//	s, _ := seqrand.New(fastq.Codec{}, seqrand.WithSeed(42), seqrand.WithTempDir("/scratch"))
//	err := s.Run(ctx, reader, writer)
//
// Or pull records yourself:
//
//	out, _ := s.Shuffle(ctx, src)
//	defer out.Close(ctx)
//	for {
//	    rec, err := out.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # Determinism
//
// Chunk i is shuffled with a generator seeded from (seed, i). The same seed,
// chunk size and input always give the same output, regardless of WithWorkers.
// Without WithSeed the clock is used; Shuffler.Seed reports the effective seed.
//
// # Temp Storage
//
// Chunks are spilled to a local directory (WithTempDir, default os.TempDir())
// or to any blobstore.Store (WithSpillStore), such as S3 or MinIO. Every spill
// object is removed when the run ends, successfully or not. A directory the
// run created is removed as well; a directory that already existed is kept.
//
// # Errors
//
// Configuration problems wrap ErrInvalidConfig and are reported by New.
// Failures of the temp storage are *ResourceError, failures of the source or
// sink are *StreamError, and damaged spill data wraps ErrIntegrity.
package seqrand
