package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/fileserve"
	"github.com/helixml/fileserve/domain/transfer"
	"github.com/helixml/fileserve/infrastructure/api/jsonapi"
	"github.com/helixml/fileserve/infrastructure/api/middleware"
)

// TransfersRouter handles transfer ledger endpoints.
type TransfersRouter struct {
	client     *fileserve.Client
	logger     *slog.Logger
	serializer *jsonapi.Serializer
}

// NewTransfersRouter creates a new TransfersRouter.
func NewTransfersRouter(client *fileserve.Client) *TransfersRouter {
	return &TransfersRouter{
		client:     client,
		logger:     client.Logger(),
		serializer: jsonapi.NewSerializer(),
	}
}

// Routes returns the chi router for transfer endpoints.
func (r *TransfersRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/{id}", r.Get)

	return router
}

// List handles GET /api/v1/transfers.
//
//	@Summary		List transfers
//	@Description	List recorded downloads and streams, newest first
//	@Tags			transfers
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			page_size	query		int	false	"Results per page (default: 20, max: 1000)"
//	@Param			limit		query		int		false	"Alias for page_size"
//	@Param			path		query		string	false	"Only transfers of this path"
//	@Param			kind		query		string	false	"Comma-separated kinds: download, stream, mcp"
//	@Param			since		query		string	false	"Only transfers started at or after this RFC 3339 time"
//	@Success		200			{object}	jsonapi.TransferListResponse
//	@Failure		400			{object}	middleware.JSONAPIErrorResponse
//	@Failure		404			{object}	middleware.JSONAPIErrorResponse
//	@Failure		500			{object}	middleware.JSONAPIErrorResponse
//	@Router			/transfers [get]
func (r *TransfersRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	params := ParsePagination(req)
	if limit, err := strconv.Atoi(req.URL.Query().Get("limit")); err == nil {
		params = params.WithPageSize(limit)
	}

	filter, err := parseFilter(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	transfers, err := r.client.Transfers.Recent(ctx, filter, params.Limit(), params.Offset())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	total, err := r.client.Transfers.Count(ctx, filter)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	doc := jsonapi.NewListResponse(r.serializer.TransferResources(transfers))
	doc.Meta = PaginationMeta(params, total)
	doc.Links = PaginationLinks(req, params, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Get handles GET /api/v1/transfers/{id}.
//
//	@Summary		Get transfer
//	@Description	Get one recorded transfer by ID
//	@Tags			transfers
//	@Produce		json
//	@Param			id	path		int	true	"Transfer ID"
//	@Success		200	{object}	jsonapi.TransferResponse
//	@Failure		400	{object}	middleware.JSONAPIErrorResponse
//	@Failure		404	{object}	middleware.JSONAPIErrorResponse
//	@Failure		500	{object}	middleware.JSONAPIErrorResponse
//	@Router			/transfers/{id} [get]
func (r *TransfersRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id < 1 {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid transfer id", err), r.logger)
		return
	}

	t, err := r.client.Transfers.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(r.serializer.TransferResource(t)))
}

// parseFilter reads the path, kind and since query parameters.
func parseFilter(req *http.Request) (transfer.Filter, error) {
	q := req.URL.Query()
	filter := transfer.NewFilter().WithPath(q.Get("path"))

	if raw := q.Get("kind"); raw != "" {
		var kinds []transfer.Kind
		for _, name := range strings.Split(raw, ",") {
			kind, err := transfer.ParseKind(strings.TrimSpace(name))
			if err != nil {
				return filter, middleware.NewAPIError(http.StatusBadRequest, err.Error(), err)
			}
			kinds = append(kinds, kind)
		}
		filter = filter.WithKinds(kinds...)
	}

	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, middleware.NewAPIError(http.StatusBadRequest, fmt.Sprintf("invalid since %q", raw), err)
		}
		filter = filter.WithSince(since)
	}
	return filter, nil
}
