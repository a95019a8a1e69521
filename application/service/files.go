// Package service implements the application use cases on top of the domain.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/helixml/fileserve/domain/byterange"
	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/infrastructure/filesystem"
)

// Resource is an opened view of a file: its metadata, the range decision
// and the body covering exactly the decided interval.
type Resource struct {
	entry       file.Entry
	contentType string
	decision    byterange.Decision
	body        io.ReadCloser
}

// Entry returns the file metadata.
func (r Resource) Entry() file.Entry { return r.entry }

// ContentType returns the MIME type used for the response.
func (r Resource) ContentType() string { return r.contentType }

// Decision returns the range decision.
func (r Resource) Decision() byterange.Decision { return r.decision }

// Body returns the bytes to send. It is empty for unsatisfiable or
// zero-length decisions.
func (r Resource) Body() io.ReadCloser { return r.body }

// Close releases the body.
func (r Resource) Close() error {
	if r.body == nil {
		return nil
	}
	return r.body.Close()
}

// FilesOption configures a Files service.
type FilesOption func(*Files)

// WithRateLimit throttles opened bodies to bytesPerSecond. Zero disables it.
func WithRateLimit(bytesPerSecond int) FilesOption {
	return func(f *Files) { f.rateLimit = bytesPerSecond }
}

// WithContentType forces a single content type for every opened resource.
func WithContentType(contentType string) FilesOption {
	return func(f *Files) { f.contentType = contentType }
}

// Files lists directories and opens byte ranges of files.
type Files struct {
	lister      file.Lister
	source      file.Source
	rateLimit   int
	contentType string
	logger      *slog.Logger
}

// NewFiles creates a new Files service.
func NewFiles(lister file.Lister, source file.Source, logger *slog.Logger, opts ...FilesOption) *Files {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Files{
		lister: lister,
		source: source,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// List returns the entries of the directory at path.
func (f *Files) List(ctx context.Context, path string) ([]file.Entry, error) {
	entries, err := f.lister.List(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", path, err)
	}
	return entries, nil
}

// Stat returns the metadata of the entry at path.
func (f *Files) Stat(ctx context.Context, path string) (file.Entry, error) {
	entry, err := f.source.Stat(ctx, path)
	if err != nil {
		return file.Entry{}, fmt.Errorf("stat %q: %w", path, err)
	}
	return entry, nil
}

// ContentType returns the content type served for entry.
func (f *Files) ContentType(entry file.Entry) string {
	if f.contentType != "" {
		return f.contentType
	}
	return filesystem.ContentType(entry.Name())
}

// Open resolves rawRange against the file at path and opens the decided
// interval. The caller must Close the returned Resource. Directories are
// rejected with file.ErrIsDirectory. An unsatisfiable range is not an error;
// it is reported through the Resource decision with an empty body.
func (f *Files) Open(ctx context.Context, path, rawRange string) (Resource, error) {
	entry, err := f.Stat(ctx, path)
	if err != nil {
		return Resource{}, err
	}
	if entry.IsDirectory() {
		return Resource{}, fmt.Errorf("open %q: %w", path, file.ErrIsDirectory)
	}

	contentType := f.ContentType(entry)
	decision := byterange.Resolve(entry.Size(), rawRange, contentType)
	res := Resource{
		entry:       entry,
		contentType: contentType,
		decision:    decision,
	}

	if !decision.Satisfiable() || decision.Length() == 0 {
		if !decision.Satisfiable() {
			f.logger.DebugContext(ctx, "range not satisfiable",
				slog.String("path", path),
				slog.String("range", rawRange),
				slog.Int64("size", entry.Size()),
				slog.Any("reason", decision.Reason()),
			)
		}
		res.body = io.NopCloser(strings.NewReader(""))
		return res, nil
	}

	body, err := f.source.OpenRange(ctx, path, decision.Start(), decision.End())
	if err != nil {
		return Resource{}, fmt.Errorf("open %q bytes %d-%d: %w", path, decision.Start(), decision.End(), err)
	}
	res.body = filesystem.Throttle(ctx, body, f.rateLimit)
	return res, nil
}

// ReadRange opens the decided interval of path and reads at most maxBytes of
// it into memory. The returned decision is the unmodified resolver output.
func (f *Files) ReadRange(ctx context.Context, path, rawRange string, maxBytes int64) (byterange.Decision, []byte, error) {
	res, err := f.Open(ctx, path, rawRange)
	if err != nil {
		return byterange.Decision{}, nil, err
	}
	defer func() { _ = res.Close() }()

	var body io.Reader = res.Body()
	if maxBytes > 0 {
		body = io.LimitReader(body, maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return res.Decision(), nil, fmt.Errorf("read %q: %w", path, err)
	}
	return res.Decision(), data, nil
}
