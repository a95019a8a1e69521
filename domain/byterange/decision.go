// Package byterange decides which slice of a resource an HTTP request is
// served, given the resource size and an optional Range header.
package byterange

import (
	"errors"
	"net/http"
)

// Errors explaining why a decision is unsatisfiable.
var (
	// ErrMalformedRange indicates the Range header could not be parsed.
	ErrMalformedRange = errors.New("malformed range")

	// ErrRangeOutOfBounds indicates the range starts at or beyond the end of the resource.
	ErrRangeOutOfBounds = errors.New("range out of bounds")
)

// Header names emitted by the resolver.
const (
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderContentRange  = "Content-Range"
	HeaderAcceptRanges  = "Accept-Ranges"
)

// Status is the outcome of resolving a range request.
type Status int

// Status values.
const (
	StatusFull Status = iota
	StatusPartial
	StatusUnsatisfiable
)

// String returns a lowercase name for the status.
func (s Status) String() string {
	switch s {
	case StatusFull:
		return "full"
	case StatusPartial:
		return "partial"
	case StatusUnsatisfiable:
		return "unsatisfiable"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the response status code for the outcome.
func (s Status) HTTPStatus() int {
	switch s {
	case StatusPartial:
		return http.StatusPartialContent
	case StatusUnsatisfiable:
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusOK
	}
}

// Header is a single response header. Decisions keep headers as an ordered
// list so callers write them in a stable order.
type Header struct {
	Name  string
	Value string
}

// Decision is the result of resolving a range request against a resource.
type Decision struct {
	status  Status
	start   int64
	end     int64
	total   int64
	headers []Header
	reason  error
	message string
}

// Status returns the outcome.
func (d Decision) Status() Status { return d.status }

// Start returns the first byte offset to serve.
// Only meaningful when the status is not StatusUnsatisfiable.
func (d Decision) Start() int64 { return d.start }

// End returns the last byte offset to serve (inclusive).
// Only meaningful when the status is not StatusUnsatisfiable.
func (d Decision) End() int64 { return d.end }

// Length returns the number of bytes to serve.
func (d Decision) Length() int64 {
	if d.status == StatusUnsatisfiable {
		return 0
	}
	return d.end - d.start + 1
}

// Total returns the resource size the decision was made against.
func (d Decision) Total() int64 { return d.total }

// Satisfiable reports whether the decision carries a servable interval.
func (d Decision) Satisfiable() bool { return d.status != StatusUnsatisfiable }

// Headers returns the response headers in the order they should be written.
func (d Decision) Headers() []Header {
	headers := make([]Header, len(d.headers))
	copy(headers, d.headers)
	return headers
}

// Header returns the value of the named header, or "" if absent.
func (d Decision) Header(name string) string {
	for _, h := range d.headers {
		if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(name) {
			return h.Value
		}
	}
	return ""
}

// Reason returns ErrMalformedRange or ErrRangeOutOfBounds (possibly wrapped)
// for unsatisfiable decisions, and nil otherwise.
func (d Decision) Reason() error { return d.reason }

// Message returns a human-readable body for unsatisfiable decisions.
func (d Decision) Message() string { return d.message }

// Apply writes the decision headers to h.
func (d Decision) Apply(h http.Header) {
	for _, hdr := range d.headers {
		h.Set(hdr.Name, hdr.Value)
	}
}
