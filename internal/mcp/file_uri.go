package mcp

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// FileURITemplate is the MCP resource template for served files.
const FileURITemplate = "file:///{+path}"

// FileURI identifies a served file, optionally narrowed to a byte range.
// Immutable value object: methods return copies.
type FileURI struct {
	path     string
	rawRange string
}

// NewFileURI creates a FileURI for a path relative to the served root.
func NewFileURI(p string) FileURI {
	return FileURI{path: strings.TrimPrefix(path.Clean("/"+p), "/")}
}

// WithRange returns a copy narrowed to rawRange, e.g. "bytes=0-99".
func (u FileURI) WithRange(rawRange string) FileURI {
	u.rawRange = rawRange
	return u
}

// Path returns the file path relative to the served root.
func (u FileURI) Path() string { return u.path }

// Range returns the raw range, or "" for the whole file.
func (u FileURI) Range() string { return u.rawRange }

// String builds the file:// URI string.
func (u FileURI) String() string {
	base := (&url.URL{Scheme: "file", Path: "/" + u.path}).String()
	if u.rawRange != "" {
		return base + "?range=" + url.QueryEscape(u.rawRange)
	}
	return base
}

// ParseFileURI parses a URI produced by FileURI.String.
func ParseFileURI(raw string) (FileURI, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return FileURI{}, fmt.Errorf("parse file uri: %w", err)
	}
	if parsed.Scheme != "file" {
		return FileURI{}, fmt.Errorf("unsupported uri scheme %q", parsed.Scheme)
	}
	return NewFileURI(parsed.Path).WithRange(parsed.Query().Get("range")), nil
}
