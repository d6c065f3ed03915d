package minio

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/seqrand/blobstore"
)

var errAborted = errors.New("minio: upload aborted")

// Store implements blobstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewClient creates a MinIO client for endpoint using credentials from the
// environment.
func NewClient(endpoint string, secure bool) (*minio.Client, error) {
	creds := credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvMinio{},
		&credentials.EnvAWS{},
	})
	return minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
	})
}

// NewStore creates a new MinIO blob store.
// rootPrefix is prepended to all keys (e.g. "spill/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return blobstore.JoinKey(s.prefix, name)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Create starts a streaming upload. The object appears when Close returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if err := blobstore.ValidateName(name); err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	blob := &writableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Open opens an object for sequential reading.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before the first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := blobstore.TrimKey(s.prefix, obj.Key); name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

type writableBlob struct {
	mu       sync.Mutex
	pw       *io.PipeWriter
	done     chan error
	finished bool
}

func (b *writableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	if finished {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *writableBlob) Close() error {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		return blobstore.ErrClosed
	}
	b.finished = true
	b.mu.Unlock()

	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}

func (b *writableBlob) Abort() error {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		return nil
	}
	b.finished = true
	b.mu.Unlock()

	_ = b.pw.CloseWithError(errAborted)
	<-b.done
	return nil
}
