package resource

import (
	"context"
	"io"
)

// RateLimitedWriter throttles writes through the controller's IO limit.
// Writes larger than the IO burst are passed on in burst-sized chunks so a
// canceled context stops the stream at a chunk boundary.
type RateLimitedWriter struct {
	ctx     context.Context
	dst     io.Writer
	rc      *Controller
	written int64
}

// NewRateLimitedWriter wraps w. A nil rc disables throttling.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, dst: w, rc: rc}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	chunk := w.rc.ioChunk(len(p))
	total := 0
	for total < len(p) {
		end := min(total+chunk, len(p))
		if err := w.rc.AcquireIO(w.ctx, end-total); err != nil {
			return total, err
		}
		n, err := w.dst.Write(p[total:end])
		total += n
		w.written += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Written returns the number of bytes passed to the underlying writer.
func (w *RateLimitedWriter) Written() int64 {
	return w.written
}

// RateLimitedReader throttles reads through the controller's IO limit.
// Bytes are charged after they are read; a single read never exceeds the
// IO burst.
type RateLimitedReader struct {
	ctx context.Context
	src io.Reader
	rc  *Controller
}

// NewRateLimitedReader wraps r. A nil rc disables throttling.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, src: r, rc: rc}
}

func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	p = p[:r.rc.ioChunk(len(p))]
	n, err := r.src.Read(p)
	if n > 0 {
		if werr := r.rc.AcquireIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
