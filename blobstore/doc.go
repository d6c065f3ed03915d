// Package blobstore provides the storage backends spill chunks are written to.
//
// A Store is a flat namespace of write-once blobs. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system
//   - MemoryStore: in-process, for tests
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart streaming uploads
//
// # Custom Implementations
//
// Implement the Store interface to spill to another backend:
//
//	type Store interface {
//	    Create(ctx, name) (WritableBlob, error) // visible after Close
//	    Open(ctx, name) (io.ReadCloser, error)
//	    Delete(ctx, name) error                 // missing is not an error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
