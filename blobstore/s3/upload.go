package s3

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/seqrand/blobstore"
)

var errAborted = errors.New("s3: upload aborted")

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the part size for multipart uploads.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of concurrent part uploads per chunk.
	// Default: 2; spill workers already upload chunks in parallel.
	Concurrency int
}

// DefaultUploadConfig returns the upload settings used by NewStore.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:    8 * 1024 * 1024,
		Concurrency: 2,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		// Aborted or failed spill uploads must not leave billable parts.
		u.LeavePartsOnError = false
	})
}

// writableBlob streams writes into a background manager upload through a pipe.
type writableBlob struct {
	mu       sync.Mutex
	pw       *io.PipeWriter
	done     chan error
	finished bool
}

func newWritableBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string) *writableBlob {
	pr, pw := io.Pipe()
	b := &writableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		b.done <- err
	}()

	return b
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

// Abort fails the pipe so the uploader stops and aborts any multipart upload.
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
