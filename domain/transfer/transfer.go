// Package transfer models the ledger of served downloads and streams.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Lookup errors.
var (
	// ErrNotFound indicates no transfer has the requested ID.
	ErrNotFound = errors.New("transfer not found")

	// ErrUnknownKind indicates a kind name outside the Kind values.
	ErrUnknownKind = errors.New("unknown transfer kind")
)

// Kind identifies the endpoint that served a transfer.
type Kind string

// Kind values.
const (
	KindDownload Kind = "download"
	KindStream   Kind = "stream"
	KindMCP      Kind = "mcp"
)

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDownload, KindStream, KindMCP:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Transfer records one response body served from a resource.
type Transfer struct {
	id         int64
	path       string
	kind       Kind
	status     int
	start      int64
	end        int64
	length     int64
	bytesSent  int64
	clientAddr string
	requestID  string
	startedAt  time.Time
	finishedAt time.Time
}

// New creates a Transfer that has not been persisted yet.
func New(path string, kind Kind, status int, start, end, length int64) Transfer {
	return Transfer{
		path:      path,
		kind:      kind,
		status:    status,
		start:     start,
		end:       end,
		length:    length,
		startedAt: time.Now(),
	}
}

// Reconstruct recreates a Transfer from persisted fields.
func Reconstruct(
	id int64,
	path string,
	kind Kind,
	status int,
	start, end, length, bytesSent int64,
	clientAddr, requestID string,
	startedAt, finishedAt time.Time,
) Transfer {
	return Transfer{
		id:         id,
		path:       path,
		kind:       kind,
		status:     status,
		start:      start,
		end:        end,
		length:     length,
		bytesSent:  bytesSent,
		clientAddr: clientAddr,
		requestID:  requestID,
		startedAt:  startedAt,
		finishedAt: finishedAt,
	}
}

// ID returns the ledger identifier, zero before persistence.
func (t Transfer) ID() int64 { return t.id }

// Path returns the resource path.
func (t Transfer) Path() string { return t.path }

// Kind returns the serving endpoint.
func (t Transfer) Kind() Kind { return t.kind }

// Status returns the HTTP status sent.
func (t Transfer) Status() int { return t.status }

// Start returns the first byte offset served.
func (t Transfer) Start() int64 { return t.start }

// End returns the last byte offset served (inclusive).
func (t Transfer) End() int64 { return t.end }

// Length returns the declared Content-Length.
func (t Transfer) Length() int64 { return t.length }

// BytesSent returns the number of body bytes actually written.
func (t Transfer) BytesSent() int64 { return t.bytesSent }

// Complete reports whether every declared byte was written. A rejected
// range carries no body and is never complete.
func (t Transfer) Complete() bool {
	if t.status == http.StatusRequestedRangeNotSatisfiable {
		return false
	}
	return t.bytesSent == t.length
}

// ClientAddr returns the remote address of the client.
func (t Transfer) ClientAddr() string { return t.clientAddr }

// RequestID returns the request ID assigned by the server.
func (t Transfer) RequestID() string { return t.requestID }

// StartedAt returns when the transfer began.
func (t Transfer) StartedAt() time.Time { return t.startedAt }

// FinishedAt returns when the transfer ended.
func (t Transfer) FinishedAt() time.Time { return t.finishedAt }

// WithClient returns a copy carrying client identification.
func (t Transfer) WithClient(clientAddr, requestID string) Transfer {
	t.clientAddr = clientAddr
	t.requestID = requestID
	return t
}

// Finish returns a copy marked finished after bytesSent bytes.
func (t Transfer) Finish(bytesSent int64) Transfer {
	t.bytesSent = bytesSent
	t.finishedAt = time.Now()
	return t
}

// Filter narrows a ledger listing. The zero Filter matches every transfer.
type Filter struct {
	path  string
	kinds []Kind
	since time.Time
}

// NewFilter creates a Filter that matches every transfer.
func NewFilter() Filter {
	return Filter{}
}

// WithPath returns a copy matching only transfers of path.
func (f Filter) WithPath(path string) Filter {
	f.path = path
	return f
}

// WithKinds returns a copy matching only the given kinds.
func (f Filter) WithKinds(kinds ...Kind) Filter {
	f.kinds = append([]Kind(nil), kinds...)
	return f
}

// WithSince returns a copy matching transfers started at or after t.
func (f Filter) WithSince(t time.Time) Filter {
	f.since = t
	return f
}

// Path returns the path filter, empty for any.
func (f Filter) Path() string { return f.path }

// Kinds returns the kind filter, empty for any.
func (f Filter) Kinds() []Kind { return append([]Kind(nil), f.kinds...) }

// Since returns the lower start time bound, zero for none.
func (f Filter) Since() time.Time { return f.since }

// Store persists transfers.
type Store interface {
	Save(ctx context.Context, t Transfer) (Transfer, error)
	// Get returns the transfer with id or ErrNotFound.
	Get(ctx context.Context, id int64) (Transfer, error)
	// Recent returns matching transfers newest first, skipping the first offset.
	Recent(ctx context.Context, filter Filter, limit, offset int) ([]Transfer, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// Prune deletes all but the keep most recent transfers.
	Prune(ctx context.Context, keep int) (int64, error)
}
