package tempstore

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqrand/blobstore"
	"github.com/hupe1980/seqrand/internal/fs"
)

func writeChunk(t *testing.T, h *Handle, data string) {
	t.Helper()
	_, err := io.WriteString(h.Writer(), data)
	require.NoError(t, err)
	require.NoError(t, h.Commit())
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPrepareDir(t *testing.T) {
	t.Run("Unset", func(t *testing.T) {
		dir, pre, err := PrepareDir(nil, "")
		require.NoError(t, err)
		assert.Equal(t, os.TempDir(), dir)
		assert.True(t, pre)
	})

	t.Run("Existing", func(t *testing.T) {
		base := t.TempDir()
		dir, pre, err := PrepareDir(nil, base)
		require.NoError(t, err)
		assert.Equal(t, base, dir)
		assert.True(t, pre)
	})

	t.Run("Missing", func(t *testing.T) {
		want := filepath.Join(t.TempDir(), "spill")
		dir, pre, err := PrepareDir(nil, want)
		require.NoError(t, err)
		assert.Equal(t, want, dir)
		assert.False(t, pre)
		assert.DirExists(t, want)
	})

	t.Run("MissingParent", func(t *testing.T) {
		_, _, err := PrepareDir(nil, filepath.Join(t.TempDir(), "a", "b"))
		var opErr *OpError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, "mkdir", opErr.Op)
	})

	t.Run("File", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, _, err := PrepareDir(nil, file)
		assert.ErrorIs(t, err, ErrNotDirectory)
	})

	t.Run("MkdirFault", func(t *testing.T) {
		faulty := fs.NewFaultyFS(nil)
		faulty.AddRule("denied", fs.Fault{FailAfterBytes: -1, FailOnMkdir: true})
		_, _, err := PrepareDir(faulty, filepath.Join(t.TempDir(), "denied"))
		assert.ErrorIs(t, err, fs.ErrInjected)
	})
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewLocal(LocalConfig{Dir: dir})
	require.NoError(t, err)
	assert.True(t, m.Preexisted())
	assert.Equal(t, dir, m.Dir())

	h0, err := m.NewFile(ctx)
	require.NoError(t, err)
	h1, err := m.NewFile(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, h0.Index())
	assert.Equal(t, 1, h1.Index())
	assert.NotEqual(t, h0.Name(), h1.Name())
	assert.Regexp(t, regexp.MustCompile(`^seqrand-[0-9a-f-]{36}-000000\.chunk$`), h0.Name())
	assert.Equal(t, 2, m.Live())

	// Uncommitted handles cannot be opened.
	_, err = m.Open(ctx, h0)
	assert.ErrorIs(t, err, ErrNotCommitted)

	writeChunk(t, h0, "chunk zero")
	writeChunk(t, h1, "chunk one")

	r, err := m.Open(ctx, h1)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "chunk one", string(data))

	require.NoError(t, m.Release(ctx, h1))
	require.NoError(t, m.Release(ctx, h1))
	assert.Equal(t, 1, m.Live())
	assert.NoFileExists(t, m.Location(h1.Name()))
	assert.FileExists(t, m.Location(h0.Name()))

	_, err = m.Open(ctx, h1)
	assert.ErrorIs(t, err, ErrUnknownHandle)

	require.NoError(t, m.Close(ctx))
	require.NoError(t, m.Close(ctx))
	assert.Equal(t, 0, m.Live())
	assert.Empty(t, dirEntries(t, dir))

	// Pre-existing directories are never removed.
	assert.DirExists(t, dir)

	_, err = m.NewFile(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManager_CreatedDirRemoved(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "run")

	m, err := NewLocal(LocalConfig{Dir: dir})
	require.NoError(t, err)
	assert.False(t, m.Preexisted())

	h, err := m.NewFile(ctx)
	require.NoError(t, err)
	writeChunk(t, h, "data")
	_, err = m.NewFile(ctx) // left uncommitted
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx))
	assert.NoDirExists(t, dir)
}

func TestManager_CreatedDirKeptWhenNotEmpty(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "run")

	m, err := NewLocal(LocalConfig{Dir: dir})
	require.NoError(t, err)

	h, err := m.NewFile(ctx)
	require.NoError(t, err)
	writeChunk(t, h, "data")

	foreign := filepath.Join(dir, "other-tool.tmp")
	require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o600))

	require.NoError(t, m.Close(ctx))
	assert.Equal(t, []string{"other-tool.tmp"}, dirEntries(t, dir))
}

func TestManager_WriteFailureCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(".chunk", fs.Fault{FailAfterBytes: 8})

	m, err := NewLocal(LocalConfig{FS: faulty, Dir: dir})
	require.NoError(t, err)

	h, err := m.NewFile(ctx)
	require.NoError(t, err)
	_, err = io.WriteString(h.Writer(), "more than eight bytes")
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, int64(8), faulty.Written())

	require.NoError(t, m.Release(ctx, h))
	assert.Empty(t, dirEntries(t, dir))
	require.NoError(t, m.Close(ctx))
}

func TestManager_CloseReportsRemoveFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(".chunk", fs.Fault{FailAfterBytes: -1, FailOnRemove: true})

	m, err := NewLocal(LocalConfig{FS: faulty, Dir: dir})
	require.NoError(t, err)
	h, err := m.NewFile(ctx)
	require.NoError(t, err)
	writeChunk(t, h, "data")

	err = m.Close(ctx)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "remove", opErr.Op)
	assert.ErrorIs(t, err, fs.ErrInjected)
}

func TestManager_MinFreeBytes(t *testing.T) {
	if _, err := fs.FreeBytes(t.TempDir()); err != nil {
		t.Skipf("free space query unavailable: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "run")
	_, err := NewLocal(LocalConfig{Dir: dir, MinFreeBytes: math.MaxUint64})
	assert.ErrorIs(t, err, ErrInsufficientSpace)
	assert.NoDirExists(t, dir)

	m, err := NewLocal(LocalConfig{Dir: dir, MinFreeBytes: 1})
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background()))
}

func TestManager_Remote(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m := NewRemote(store, "job7")
	assert.True(t, m.Preexisted())
	assert.Empty(t, m.Dir())

	var handles []*Handle
	for i := 0; i < 3; i++ {
		h, err := m.NewFile(ctx)
		require.NoError(t, err)
		assert.Regexp(t, `^job7-`, h.Name())
		writeChunk(t, h, "remote chunk")
		handles = append(handles, h)
	}
	assert.Equal(t, 3, store.Len())

	require.NoError(t, m.Release(ctx, handles[1]))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, m.Close(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestManager_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewRemote(blobstore.NewMemoryStore(), "")

	const n = 64
	done := make(chan *Handle, n)
	for i := 0; i < n; i++ {
		go func() {
			h, err := m.NewFile(ctx)
			if !assert.NoError(t, err) {
				done <- nil
				return
			}
			_, _ = io.WriteString(h.Writer(), "x")
			assert.NoError(t, h.Commit())
			done <- h
		}()
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		h := <-done
		require.NotNil(t, h)
		assert.False(t, seen[h.Index()])
		seen[h.Index()] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, m.Live())
	require.NoError(t, m.Close(ctx))
}
