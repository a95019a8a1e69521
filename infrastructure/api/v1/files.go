// Package v1 implements the version 1 HTTP API routes.
package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/domain/file"
	"github.com/helixml/fileserve/infrastructure/api/jsonapi"
	"github.com/helixml/fileserve/infrastructure/api/middleware"
)

// FilesRouter handles directory listing endpoints.
type FilesRouter struct {
	client     *fileserve.Client
	logger     *slog.Logger
	serializer *jsonapi.Serializer
}

// NewFilesRouter creates a new FilesRouter.
func NewFilesRouter(client *fileserve.Client) *FilesRouter {
	return &FilesRouter{
		client:     client,
		logger:     client.Logger(),
		serializer: jsonapi.NewSerializer(),
	}
}

// Routes returns the chi router for file endpoints.
func (r *FilesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)

	return router
}

// List handles GET /api/v1/files.
//
//	@Summary		List directory
//	@Description	List the entries of a directory under the served root, sorted by name
//	@Tags			files
//	@Produce		json
//	@Param			path	query		string	false	"Directory path relative to the root (default: root)"
//	@Success		200		{object}	jsonapi.FileListResponse
//	@Failure		400		{object}	middleware.JSONAPIErrorResponse
//	@Failure		404		{object}	middleware.JSONAPIErrorResponse
//	@Failure		500		{object}	middleware.JSONAPIErrorResponse
//	@Router			/files [get]
func (r *FilesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	path := req.URL.Query().Get("path")

	entries, err := r.client.Files.List(ctx, path)
	if err != nil {
		if !errors.Is(err, file.ErrNotFound) && !errors.Is(err, file.ErrNotDirectory) {
			err = middleware.NewAPIError(http.StatusInternalServerError, "Unable to scan directory", err)
		}
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(r.serializer.FileResources(entries))
	doc.Meta = &jsonapi.Meta{
		"path":  path,
		"count": len(entries),
	}
	middleware.WriteJSON(w, http.StatusOK, doc)
}
