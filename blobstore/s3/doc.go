// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "seqrand/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := seqrand.New(fastq.Codec{}, seqrand.WithSpillStore(store, "run-1"))
//
// Credentials and region come from the default AWS configuration chain
// (environment, shared config, instance role).
//
// # Features
//
//   - Streaming multipart uploads through feature/s3/manager
//   - Failed or aborted uploads leave no parts behind
//   - Automatic pagination for listing
//   - Configurable key prefix
package s3
