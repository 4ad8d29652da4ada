// Package blobstore provides the storage abstraction archives are written to.
//
// Store is the interface for reading and writing named blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, commits by atomic rename
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with streaming multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Writing
//
// Create returns a WritableBlob. Bytes become visible under the blob name only
// when Close succeeds; Abort discards a partial write:
//
//	w, err := store.Create(ctx, "scene.sog")
//	if err != nil {
//	    return err
//	}
//	if _, err := w.Write(data); err != nil {
//	    _ = w.Abort()
//	    return err
//	}
//	return w.Close()
package blobstore
