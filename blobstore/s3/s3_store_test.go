package s3_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sog"
	"github.com/hupe1980/sog/blobstore"
	"github.com/hupe1980/sog/blobstore/s3"
	"github.com/hupe1980/sog/internal/archive"
	"github.com/hupe1980/sog/manifest"
	"github.com/hupe1980/sog/testutil"
)

func TestIntegration_ExportToS3(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test-sog-%d/", time.Now().UnixNano())
	store, err := s3.New(ctx, bucket, s3.WithPrefix(prefix))
	require.NoError(t, err)

	splats := testutil.NewRNG(5).Splats(2000, testutil.SplatOptions{SHBands: 1, Clusters: 4})

	t.Run("Export", func(t *testing.T) {
		exp := sog.New(sog.WithIterations(2), sog.WithSeed(5))
		res, err := exp.ExportTo(ctx, store, "scene.sog", []sog.Source{splats}, nil)
		require.NoError(t, err)
		defer func() { _ = store.Delete(ctx, "scene.sog") }()

		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, names, "scene.sog")

		blob, err := store.Open(ctx, "scene.sog")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, res.Bytes, blob.Size())

		// zip end of central directory record
		tail := make([]byte, 4)
		_, err = blob.ReadAt(ctx, tail, blob.Size()-22)
		require.NoError(t, err)
		assert.Equal(t, []byte("PK\x05\x06"), tail)

		rc, err := blob.ReadRange(ctx, 0, blob.Size())
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)

		entries, err := archive.List(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, manifest.FileName, entries[len(entries)-1].Name)
	})

	t.Run("Abort", func(t *testing.T) {
		w, err := store.Create(ctx, "aborted.sog")
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		_, err = store.Open(ctx, "aborted.sog")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
