package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	w, err := store.Create(ctx, "a.sog")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "a.sog")
	require.ErrorIs(t, err, ErrNotFound, "blob is published on Close only")
	assert.Equal(t, 1, store.Pending())

	require.NoError(t, w.Close())
	assert.Zero(t, store.Pending())
	require.NoError(t, w.Abort(), "abort after close is a no-op")

	got, err := Get(ctx, store, "a.sog")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	blob, err := store.Open(ctx, "a.sog")
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err := blob.ReadAt(ctx, buf, 6)
	assert.Equal(t, 5, n)
	assert.ErrorIs(t, err, io.EOF)

	aborted, err := store.Create(ctx, "b.sog")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, aborted.Abort())
	assert.ErrorIs(t, aborted.Close(), ErrClosed)
	_, err = aborted.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, store.Pending())

	require.NoError(t, store.Put(ctx, "c.sog", []byte("c")))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.sog", "c.sog"}, names)

	require.NoError(t, store.Delete(ctx, "a.sog"))
	names, err = store.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, names)
}
