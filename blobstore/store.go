package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	//
	// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
	// It maps to os.ErrNotExist so local file errors match without translation.
	ErrNotFound = os.ErrNotExist

	// ErrExists is returned by Create when the name is already taken.
	ErrExists = os.ErrExist

	// ErrInvalidName is returned for names that are empty or contain a path separator.
	ErrInvalidName = errors.New("blobstore: invalid blob name")

	// ErrClosed is returned when writing to a blob that was already closed or aborted.
	ErrClosed = errors.New("blobstore: blob already closed")
)

// Store is a flat namespace of write-once blobs.
//
// Spill chunks are written once, read once in full, and deleted, so the
// interface only offers streaming create/open plus delete and list.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create starts a new blob. The blob becomes visible to Open only after
	// a successful Close on the returned WritableBlob.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Open opens a committed blob for sequential reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// WritableBlob is a blob under construction.
type WritableBlob interface {
	io.Writer
	// Close commits the blob.
	Close() error
	// Abort discards the blob. Calling Abort after Close is a no-op.
	Abort() error
}

// ValidateName reports whether name is usable as a flat blob name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return ErrInvalidName
	}
	return nil
}

// JoinKey joins an object key prefix and a blob name with a single slash.
func JoinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// TrimKey strips prefix (as used by JoinKey) from an object key.
func TrimKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
}
