package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			data := []byte("hello world, this is a test blob")

			require.NoError(t, store.Put(ctx, "snapshots/a/data-001", data))
			require.NoError(t, store.Put(ctx, "snapshots/b/data-002", []byte("x")))
			require.NoError(t, store.Put(ctx, "CURRENT", []byte("snapshots/a")))

			blob, err := store.Open(ctx, "snapshots/a/data-001")
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err := blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			// Past the end
			n, err = blob.ReadAt(ctx, buf, int64(len(data))-2)
			assert.ErrorIs(t, err, io.EOF)
			assert.Equal(t, 2, n)
			require.NoError(t, blob.Close())

			names, err := store.List(ctx, "snapshots/")
			require.NoError(t, err)
			assert.Equal(t, []string{"snapshots/a/data-001", "snapshots/b/data-002"}, names)

			all, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			// Overwrite
			require.NoError(t, store.Put(ctx, "CURRENT", []byte("snapshots/b")))
			got, err := ReadAll(ctx, store, "CURRENT")
			require.NoError(t, err)
			assert.Equal(t, "snapshots/b", string(got))

			require.NoError(t, store.Delete(ctx, "snapshots/a/data-001"))
			require.NoError(t, store.Delete(ctx, "snapshots/a/data-001"))
			_, err = store.Open(ctx, "snapshots/a/data-001")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = ReadAll(ctx, store, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBlobStore_EmptyBlob(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(t.Context(), "empty", nil))
			got, err := ReadAll(t.Context(), store, "empty")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestMemoryStore_PutCopies(t *testing.T) {
	store := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Put(t.Context(), "k", data))
	data[0] = 'z'

	got, err := ReadAll(t.Context(), store, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	require.NoError(t, store.Put(t.Context(), "a/b", []byte("1")))

	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Name())
}

func TestLocalStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_Canceled(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, store.Put(ctx, "k", []byte("v")), context.Canceled)
	_, err := store.Open(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
