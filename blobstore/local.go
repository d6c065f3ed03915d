package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/seqrand/internal/fs"
)

// LocalStore implements Store using a directory on the local file system.
// Blobs are plain files named after the blob.
type LocalStore struct {
	fs   fs.FileSystem
	root string
}

// NewLocalStore creates a LocalStore rooted at an existing directory.
// A nil fsys uses the operating system's file system.
func NewLocalStore(fsys fs.FileSystem, root string) *LocalStore {
	if fsys == nil {
		fsys = fs.Default
	}
	return &LocalStore{fs: fsys, root: root}
}

// Root returns the directory blobs are stored in.
func (s *LocalStore) Root() string { return s.root }

// Path returns the file path of the named blob.
func (s *LocalStore) Path(name string) string { return filepath.Join(s.root, name) }

// Create creates a new file exclusively; an existing file yields ErrExists.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	path := s.Path(name)
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fs: s.fs, f: f, path: path}, nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return s.fs.OpenFile(s.Path(name), os.O_RDONLY, 0)
}

// Delete removes a blob file.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(s.Path(name)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// List returns the names of regular files in the root starting with prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

type localWritableBlob struct {
	mu   sync.Mutex
	fs   fs.FileSystem
	f    fs.File
	path string
	done bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return 0, ErrClosed
	}
	return b.f.Write(p)
}

func (b *localWritableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return ErrClosed
	}
	b.done = true
	return b.f.Close()
}

func (b *localWritableBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return nil
	}
	b.done = true
	cerr := b.f.Close()
	if err := b.fs.Remove(b.path); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return cerr
}
