// Package file models the resources served: directory entries and the
// collaborators that list and open them.
package file

import (
	"context"
	"errors"
	"io"
	"time"
)

// Errors returned by Lister and Source implementations.
var (
	// ErrNotFound indicates the path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrIsDirectory indicates a file operation was attempted on a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrNotDirectory indicates a listing was attempted on a regular file.
	ErrNotDirectory = errors.New("not a directory")
)

// Entry describes a single file or directory.
type Entry struct {
	name         string
	path         string
	isDirectory  bool
	size         int64
	modifiedTime time.Time
}

// NewEntry creates an Entry.
func NewEntry(name, path string, isDirectory bool, size int64, modifiedTime time.Time) Entry {
	return Entry{
		name:         name,
		path:         path,
		isDirectory:  isDirectory,
		size:         size,
		modifiedTime: modifiedTime,
	}
}

// Name returns the base name.
func (e Entry) Name() string { return e.name }

// Path returns the path relative to the served root, slash separated.
func (e Entry) Path() string { return e.path }

// IsDirectory reports whether the entry is a directory.
func (e Entry) IsDirectory() bool { return e.isDirectory }

// Size returns the size in bytes.
func (e Entry) Size() int64 { return e.size }

// ModifiedTime returns the last modification time.
func (e Entry) ModifiedTime() time.Time { return e.modifiedTime }

// Lister lists the entries of a directory.
type Lister interface {
	List(ctx context.Context, path string) ([]Entry, error)
}

// Source opens byte ranges of resources.
type Source interface {
	// Stat returns the entry for path.
	Stat(ctx context.Context, path string) (Entry, error)

	// OpenRange opens the inclusive interval [start, end] of the resource.
	// The returned stream yields at most end-start+1 bytes and must be closed.
	OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error)
}
