package fileserve

import "errors"

// Client construction and lifecycle errors.
var (
	// ErrNoRoot indicates the client was created without a directory to serve.
	ErrNoRoot = errors.New("fileserve: no root directory configured")

	// ErrClientClosed indicates the client has already been closed.
	ErrClientClosed = errors.New("fileserve: client is closed")
)
