// Package minio provides a blobstore.Store backed by the MinIO client.
//
// It works with MinIO and other S3-compatible servers (Ceph, SeaweedFS,
// Garage) and needs no AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.NewClient("localhost:9000", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minio.NewStore(client, "scratch", "seqrand/")
//	s, err := seqrand.New(fastq.Codec{}, seqrand.WithSpillStore(store, "run-1"))
//
// NewClient reads credentials from MINIO_ACCESS_KEY/MINIO_SECRET_KEY, falling
// back to AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY.
//
// Chunks are uploaded as they are encoded: Create streams into PutObject
// through a pipe, so a chunk is never buffered in full on the client.
package minio
