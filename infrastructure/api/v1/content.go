package v1

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/domain/byterange"
	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/domain/transfer"
	"github.com/helixml/fileserve/infrastructure/api/middleware"
)

// ContentRouter serves file bytes, honouring single Range requests.
// The same router backs both the download and the stream endpoints; only
// the recorded transfer kind and the Content-Disposition header differ.
type ContentRouter struct {
	client *fileserve.Client
	logger *slog.Logger
	kind   transfer.Kind
}

// NewDownloadRouter creates a ContentRouter that serves attachments.
func NewDownloadRouter(client *fileserve.Client) *ContentRouter {
	return &ContentRouter{
		client: client,
		logger: client.Logger(),
		kind:   transfer.KindDownload,
	}
}

// NewStreamRouter creates a ContentRouter that serves inline media.
func NewStreamRouter(client *fileserve.Client) *ContentRouter {
	return &ContentRouter{
		client: client,
		logger: client.Logger(),
		kind:   transfer.KindStream,
	}
}

// Routes returns the chi router for content endpoints.
func (r *ContentRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Serve)
	router.Head("/", r.Serve)

	return router
}

// Serve handles GET and HEAD on /api/v1/download and /api/v1/stream.
//
//	@Summary		Download or stream a file
//	@Description	Serve a file, or a single byte range of it when a Range header is sent.
//	@Description	The download endpoint adds Content-Disposition: attachment.
//	@Tags			files
//	@Produce		octet-stream
//	@Param			path	query		string	true	"File path relative to the root"
//	@Param			Range	header		string	false	"Byte range, e.g. bytes=0-1023"
//	@Success		200		{file}		binary
//	@Success		206		{file}		binary
//	@Failure		400		{object}	middleware.JSONAPIErrorResponse
//	@Failure		404		{object}	middleware.JSONAPIErrorResponse
//	@Failure		416		{string}	string	"Range Not Satisfiable"
//	@Router			/download [get]
//	@Router			/stream [get]
func (r *ContentRouter) Serve(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	path := req.URL.Query().Get("path")
	if path == "" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "path query parameter is required", nil), r.logger)
		return
	}

	res, err := r.client.Files.Open(ctx, path, req.Header.Get("Range"))
	if err != nil {
		if errors.Is(err, file.ErrIsDirectory) && r.kind == transfer.KindDownload {
			err = middleware.NewAPIError(http.StatusBadRequest, "Cannot download a directory", err)
		}
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	defer func() { _ = res.Close() }()

	decision := res.Decision()
	status := decision.Status().HTTPStatus()
	record := transfer.New(path, r.kind, status, decision.Start(), decision.End(), decision.Length()).
		WithClient(req.RemoteAddr, chimiddleware.GetReqID(ctx))

	header := w.Header()
	decision.Apply(header)

	if !decision.Satisfiable() {
		header.Set(byterange.HeaderContentType, "text/plain; charset=utf-8")
		header.Set(byterange.HeaderContentLength, strconv.Itoa(len(decision.Message())))
		w.WriteHeader(status)
		if req.Method != http.MethodHead {
			_, _ = io.WriteString(w, decision.Message())
		}
		r.record(req, record.Finish(0))
		return
	}

	if r.kind == transfer.KindDownload {
		header.Set("Content-Disposition", contentDisposition(res.Entry().Name()))
	}

	w.WriteHeader(status)
	if req.Method == http.MethodHead {
		return
	}

	var sent int64
	if decision.Length() > 0 {
		sent, err = io.CopyN(w, res.Body(), decision.Length())
		if err != nil {
			r.logger.WarnContext(ctx, "transfer interrupted",
				slog.String("path", path),
				slog.Int64("bytes_sent", sent),
				slog.Int64("length", decision.Length()),
				slog.Any("error", err),
			)
		}
	}
	r.record(req, record.Finish(sent))
}

func (r *ContentRouter) record(req *http.Request, t transfer.Transfer) {
	if req.Method == http.MethodHead {
		return
	}
	// An interrupted transfer has a cancelled request context; record it anyway.
	ctx := context.WithoutCancel(req.Context())
	if _, err := r.client.Transfers.Record(ctx, t); err != nil {
		r.logger.WarnContext(ctx, "failed to record transfer",
			slog.String("path", t.Path()),
			slog.Any("error", err),
		)
	}
}

// contentDisposition formats an RFC 6266 attachment header. Non-ASCII names
// are encoded as an RFC 2231 filename* parameter.
func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
