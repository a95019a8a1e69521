// Package filesystem serves resources from a directory on local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/helixml/fileserve/domain/file"
	"golang.org/x/sync/errgroup"
)

// DefaultListConcurrency is the number of entries stat'ed in parallel.
const DefaultListConcurrency = 8

// Disk implements file.Lister and file.Source over a root directory.
type Disk struct {
	root        string
	concurrency int
}

// DiskOption configures a Disk.
type DiskOption func(*Disk)

// WithListConcurrency sets how many directory entries are stat'ed in parallel.
func WithListConcurrency(n int) DiskOption {
	return func(d *Disk) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewDisk creates a Disk rooted at root.
func NewDisk(root string, opts ...DiskOption) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", mapError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", abs, file.ErrNotDirectory)
	}

	d := &Disk{root: abs, concurrency: DefaultListConcurrency}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Root returns the absolute root directory.
func (d *Disk) Root() string { return d.root }

// Resolve maps a request path onto the filesystem. The path is cleaned as
// if absolute so it always stays under the root.
func (d *Disk) Resolve(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(path.Clean("/"+p)))
}

// relative returns the slash-separated path of abs relative to the root.
func (d *Disk) relative(abs string) string {
	rel, err := filepath.Rel(d.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// List returns the entries of the directory at p, sorted by name.
func (d *Disk) List(ctx context.Context, p string) ([]file.Entry, error) {
	dir := d.Resolve(p)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, mapError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", p, file.ErrNotDirectory)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", p, mapError(err))
	}

	entries := make([]file.Entry, len(dirEntries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, de := range dirEntries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Follow symlinks so links to files report the target size.
			full := filepath.Join(dir, de.Name())
			fi, err := os.Stat(full)
			if err != nil {
				// Dangling links and races with deletion fall back to the
				// directory entry itself.
				fi, err = de.Info()
				if err != nil {
					return fmt.Errorf("stat %s: %w", de.Name(), mapError(err))
				}
			}
			entries[i] = toEntry(fi, d.relative(full))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Stat returns the entry at p.
func (d *Disk) Stat(_ context.Context, p string) (file.Entry, error) {
	full := d.Resolve(p)
	info, err := os.Stat(full)
	if err != nil {
		return file.Entry{}, fmt.Errorf("%s: %w", p, mapError(err))
	}
	return toEntry(info, d.relative(full)), nil
}

// OpenRange opens the inclusive interval [start, end] of the file at p.
func (d *Disk) OpenRange(_ context.Context, p string, start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid interval %d-%d", start, end)
	}

	f, err := os.Open(d.Resolve(p))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, mapError(err))
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", p, file.ErrIsDirectory)
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek %s to %d: %w", p, start, err)
	}

	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(f, end-start+1),
		Closer: f,
	}, nil
}

func toEntry(info fs.FileInfo, rel string) file.Entry {
	return file.NewEntry(info.Name(), rel, info.IsDir(), info.Size(), info.ModTime())
}

func mapError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Join(file.ErrNotFound, err)
	}
	return err
}
