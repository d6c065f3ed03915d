// Package tempstore owns the spill objects of one shuffle run.
//
// A Manager hands out uniquely named spill handles in creation order, tracks
// which of them are still live, and removes everything it created when the
// run ends, on success and on failure alike. Spill objects live either in a
// local temp directory or in a blobstore.Store.
package tempstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/hupe1980/seqrand/blobstore"
	"github.com/hupe1980/seqrand/internal/fs"
)

// DefaultPrefix is the name prefix of spill objects.
const DefaultPrefix = "seqrand"

var (
	// ErrClosed is returned when allocating from a closed Manager.
	ErrClosed = errors.New("tempstore: manager closed")
	// ErrNotDirectory is returned when the configured temp path is a file.
	ErrNotDirectory = errors.New("tempstore: path exists and is not a directory")
	// ErrInsufficientSpace is returned when the temp directory has less free
	// space than LocalConfig.MinFreeBytes.
	ErrInsufficientSpace = errors.New("tempstore: insufficient free space")
	// ErrNotCommitted is returned when opening a handle before Commit.
	ErrNotCommitted = errors.New("tempstore: chunk not committed")
	// ErrUnknownHandle is returned for handles that belong to another manager.
	ErrUnknownHandle = errors.New("tempstore: unknown handle")
)

// OpError describes a failed temp storage operation.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("tempstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// PrepareDir resolves the spill directory.
//
// An empty dir resolves to os.TempDir(). An existing directory is used as-is
// and reported as preexisting. A missing directory is created (its parent must
// exist) and reported as not preexisting, which makes it eligible for removal
// when the run ends.
func PrepareDir(fsys fs.FileSystem, dir string) (string, bool, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if dir == "" {
		return os.TempDir(), true, nil
	}

	info, err := fsys.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", false, &OpError{Op: "prepare", Path: dir, Err: ErrNotDirectory}
		}
		return dir, true, nil
	case errors.Is(err, os.ErrNotExist):
		if err := fsys.Mkdir(dir, 0o700); err != nil {
			return "", false, &OpError{Op: "mkdir", Path: dir, Err: err}
		}
		return dir, false, nil
	default:
		return "", false, &OpError{Op: "stat", Path: dir, Err: err}
	}
}

// LocalConfig configures a Manager spilling to a local directory.
type LocalConfig struct {
	// FS is the file system; nil uses the operating system.
	FS fs.FileSystem
	// Dir is the spill directory; empty uses os.TempDir().
	Dir string
	// MinFreeBytes, when > 0, fails NewLocal if the directory's file system
	// has less space available. Skipped where free space cannot be queried.
	MinFreeBytes uint64
	// Prefix overrides DefaultPrefix.
	Prefix string
}

// Manager allocates, tracks and removes the spill objects of one run.
type Manager struct {
	store      blobstore.Store
	fs         fs.FileSystem
	local      bool
	dir        string
	preexisted bool
	prefix     string
	runID      string

	mu      sync.Mutex
	next    uint32
	live    *roaring.Bitmap
	handles map[uint32]*Handle
	closed  bool
}

// NewLocal prepares cfg.Dir and returns a Manager spilling into it.
func NewLocal(cfg LocalConfig) (*Manager, error) {
	fsys := cfg.FS
	if fsys == nil {
		fsys = fs.Default
	}
	dir, preexisted, err := PrepareDir(fsys, cfg.Dir)
	if err != nil {
		return nil, err
	}

	if cfg.MinFreeBytes > 0 {
		free, err := fs.FreeBytes(dir)
		if err == nil && free < cfg.MinFreeBytes {
			if !preexisted {
				_ = fsys.Remove(dir)
			}
			return nil, &OpError{
				Op:   "statfs",
				Path: dir,
				Err:  fmt.Errorf("%w: %d bytes available, %d required", ErrInsufficientSpace, free, cfg.MinFreeBytes),
			}
		}
	}

	m := newManager(blobstore.NewLocalStore(fsys, dir), cfg.Prefix)
	m.fs = fsys
	m.local = true
	m.dir = dir
	m.preexisted = preexisted
	return m, nil
}

// NewRemote returns a Manager spilling into store. Object names start with
// prefix (DefaultPrefix when empty).
func NewRemote(store blobstore.Store, prefix string) *Manager {
	m := newManager(store, prefix)
	m.preexisted = true
	return m
}

func newManager(store blobstore.Store, prefix string) *Manager {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Manager{
		store:   store,
		prefix:  prefix,
		runID:   uuid.NewString(),
		live:    roaring.New(),
		handles: make(map[uint32]*Handle),
	}
}

// Dir returns the local spill directory, or "" for remote managers.
func (m *Manager) Dir() string { return m.dir }

// Preexisted reports whether the spill directory existed before the run.
// Remote managers always report true: they never own their location.
func (m *Manager) Preexisted() bool { return m.preexisted }

// RunID returns the unique id embedded in every spill object name.
func (m *Manager) RunID() string { return m.runID }

// Live returns the number of spill objects not yet released.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(m.live.GetCardinality())
}

// Location returns a human readable path for a spill object.
func (m *Manager) Location(name string) string {
	if m.local {
		return filepath.Join(m.dir, name)
	}
	return name
}

// NewFile allocates the next spill object and opens it for writing.
// Indexes increase in call order.
func (m *Manager) NewFile(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	idx := m.next
	name := fmt.Sprintf("%s-%s-%06d.chunk", m.prefix, m.runID, idx)
	w, err := m.store.Create(ctx, name)
	if err != nil {
		return nil, &OpError{Op: "create", Path: m.Location(name), Err: err}
	}
	m.next++

	h := &Handle{index: idx, name: name, w: w}
	m.live.Add(idx)
	m.handles[idx] = h
	return h, nil
}

// Open opens a committed spill object for reading.
func (m *Manager) Open(ctx context.Context, h *Handle) (io.ReadCloser, error) {
	if !h.committed.Load() {
		return nil, &OpError{Op: "open", Path: m.Location(h.name), Err: ErrNotCommitted}
	}
	m.mu.Lock()
	live := m.live.Contains(h.index) && m.handles[h.index] == h
	m.mu.Unlock()
	if !live {
		return nil, &OpError{Op: "open", Path: m.Location(h.name), Err: ErrUnknownHandle}
	}

	r, err := m.store.Open(ctx, h.name)
	if err != nil {
		return nil, &OpError{Op: "open", Path: m.Location(h.name), Err: err}
	}
	return r, nil
}

// Release deletes a spill object. Uncommitted writes are aborted.
// Releasing an already released handle is a no-op.
func (m *Manager) Release(ctx context.Context, h *Handle) error {
	m.mu.Lock()
	if !m.live.Contains(h.index) || m.handles[h.index] != h {
		m.mu.Unlock()
		return nil
	}
	m.live.Remove(h.index)
	delete(m.handles, h.index)
	m.mu.Unlock()

	return m.release(ctx, h)
}

func (m *Manager) release(ctx context.Context, h *Handle) error {
	if !h.committed.Load() {
		if err := h.w.Abort(); err != nil {
			return &OpError{Op: "abort", Path: m.Location(h.name), Err: err}
		}
		// A failed Commit leaves the blob closed, so Abort cannot remove it.
	}
	if err := m.store.Delete(ctx, h.name); err != nil {
		return &OpError{Op: "remove", Path: m.Location(h.name), Err: err}
	}
	return nil
}

// Close releases every live spill object and, when the spill directory was
// created by this run and is now empty, removes it. Close is idempotent.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	pending := make([]*Handle, 0, m.live.GetCardinality())
	it := m.live.Iterator()
	for it.HasNext() {
		idx := it.Next()
		pending = append(pending, m.handles[idx])
	}
	m.live.Clear()
	m.handles = make(map[uint32]*Handle)
	m.mu.Unlock()

	var errs []error
	for _, h := range pending {
		if err := m.release(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}

	if m.local && !m.preexisted {
		if err := m.removeDirIfEmpty(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) removeDirIfEmpty() error {
	entries, err := m.fs.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &OpError{Op: "readdir", Path: m.dir, Err: err}
	}
	if len(entries) > 0 {
		return nil
	}
	if err := m.fs.Remove(m.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &OpError{Op: "rmdir", Path: m.dir, Err: err}
	}
	return nil
}

// Handle is one spill object. It has a single writer; Commit finishes the
// write and makes the object readable through Manager.Open.
type Handle struct {
	index     uint32
	name      string
	w         blobstore.WritableBlob
	committed atomic.Bool
}

// Index returns the creation index of the handle.
func (h *Handle) Index() int { return int(h.index) }

// Name returns the spill object name.
func (h *Handle) Name() string { return h.name }

// Writer returns the destination for the chunk bytes.
func (h *Handle) Writer() io.Writer { return h.w }

// Commit finishes the write.
func (h *Handle) Commit() error {
	if err := h.w.Close(); err != nil {
		return err
	}
	h.committed.Store(true)
	return nil
}
