package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqrand/internal/fs"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("Lifecycle", func(t *testing.T) {
		data := []byte("@r1\nACGT\n+\nIIII\n")

		w, err := store.Create(ctx, "chunk-0")
		require.NoError(t, err)

		n, err := w.Write(data)
		require.NoError(t, err)
		require.Equal(t, len(data), n)
		require.NoError(t, w.Close())

		// Second close and writes after close fail, abort is a no-op.
		assert.ErrorIs(t, w.Close(), ErrClosed)
		_, err = w.Write(data)
		assert.ErrorIs(t, err, ErrClosed)
		require.NoError(t, w.Abort())

		r, err := store.Open(ctx, "chunk-0")
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, data, got)

		require.NoError(t, store.Delete(ctx, "chunk-0"))
		_, err = store.Open(ctx, "chunk-0")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting twice is fine.
		require.NoError(t, store.Delete(ctx, "chunk-0"))
	})

	t.Run("CreateIsExclusive", func(t *testing.T) {
		w, err := store.Create(ctx, "dup")
		require.NoError(t, err)
		_, err = store.Create(ctx, "dup")
		assert.ErrorIs(t, err, ErrExists)
		require.NoError(t, w.Close())
		require.NoError(t, store.Delete(ctx, "dup"))
	})

	t.Run("Abort", func(t *testing.T) {
		w, err := store.Create(ctx, "aborted")
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		_, err = store.Open(ctx, "aborted")
		assert.ErrorIs(t, err, ErrNotFound)

		// The name is free again.
		w, err = store.Create(ctx, "aborted")
		require.NoError(t, err)
		require.NoError(t, w.Abort())
	})

	t.Run("List", func(t *testing.T) {
		for _, name := range []string{"run-a-1", "run-a-0", "run-b-0"} {
			w, err := store.Create(ctx, name)
			require.NoError(t, err)
			require.NoError(t, w.Close())
		}

		names, err := store.List(ctx, "run-a-")
		require.NoError(t, err)
		assert.Equal(t, []string{"run-a-0", "run-a-1"}, names)

		for _, name := range []string{"run-a-1", "run-a-0", "run-b-0"} {
			require.NoError(t, store.Delete(ctx, name))
		}
		names, err = store.List(ctx, "run-")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("InvalidName", func(t *testing.T) {
		for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
			_, err := store.Create(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.Create(cctx, "never")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(nil, t.TempDir()))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore_Files(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(fs.LocalFS{}, dir)
	assert.Equal(t, dir, store.Root())

	w, err := store.Create(context.Background(), "x.chunk")
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "x.chunk"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	// Directories are not blobs.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x.dir"), 0o700))
	names, err := store.List(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.chunk"}, names)
}

func TestLocalStore_WriteFault(t *testing.T) {
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(".chunk", fs.Fault{FailAfterBytes: 2})
	store := NewLocalStore(faulty, dir)

	w, err := store.Create(context.Background(), "full.chunk")
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdef"))
	assert.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, w.Abort())

	_, err = os.Stat(filepath.Join(dir, "full.chunk"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "a", JoinKey("", "a"))
	assert.Equal(t, "spill/a", JoinKey("spill/", "a"))
	assert.Equal(t, "spill/run/a", JoinKey("/spill/run", "a"))
	assert.Equal(t, "a", TrimKey("spill/", "spill/a"))
	assert.Equal(t, "a", TrimKey("", "a"))
}
