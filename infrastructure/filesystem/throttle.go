package filesystem

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttledReader limits reads from an underlying stream to a byte rate.
type throttledReader struct {
	ctx     context.Context
	reader  io.ReadCloser
	limiter *rate.Limiter
}

// Throttle wraps rc so reads proceed at no more than bytesPerSecond.
// Waits are abandoned when ctx is cancelled. A non-positive rate returns rc
// unchanged.
func Throttle(ctx context.Context, rc io.ReadCloser, bytesPerSecond int) io.ReadCloser {
	if bytesPerSecond <= 0 {
		return rc
	}
	return &throttledReader{
		ctx:     ctx,
		reader:  rc,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond),
	}
}

// Read reads at most one burst worth of bytes, then waits for the tokens.
func (r *throttledReader) Read(p []byte) (int, error) {
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := r.reader.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// Close closes the underlying stream.
func (r *throttledReader) Close() error {
	return r.reader.Close()
}
