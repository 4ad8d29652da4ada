package s3

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/sog/blobstore"
)

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5 (matches SDK default)
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	// Default: true
	EnableChecksum bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

// newUploader creates a configured S3 uploader. Failed multipart uploads
// are always aborted so that a failed export leaves no parts behind.
func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = false
	})
}

// streamingWritableBlob feeds an in-flight upload through a pipe.
type streamingWritableBlob struct {
	pw     *io.PipeWriter
	pr     *io.PipeReader
	cancel context.CancelFunc
	done   chan error

	mu     sync.Mutex
	closed bool
	err    error
}

func newStreamingWritableBlob(
	ctx context.Context,
	uploader *manager.Uploader,
	bucket, key string,
	enableChecksum bool,
) *streamingWritableBlob {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)

	blob := &streamingWritableBlob{
		pw:     pw,
		pr:     pr,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if enableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		// Unblock the writer if the upload failed early.
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob
}

func (b *streamingWritableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

// Close signals EOF and waits for the upload to complete.
func (b *streamingWritableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return blobstore.ErrClosed
	}
	b.closed = true

	_ = b.pw.Close()
	b.err = <-b.done
	b.cancel()
	return b.err
}

// Abort stops the upload. The uploader aborts any multipart upload it
// already started.
func (b *streamingWritableBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	_ = b.pw.CloseWithError(blobstore.ErrAborted)
	b.cancel()
	<-b.done
	return nil
}
