package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/helixml/fileserve"
	v1 "github.com/helixml/fileserve/infrastructure/api/v1"
	"github.com/helixml/fileserve/internal/config"
	mcpinternal "github.com/helixml/fileserve/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// listTimeout bounds the JSON endpoints. Content routes have no timeout.
const listTimeout = 60 * time.Second

// APIServer provides an HTTP API backed by a fileserve Client.
type APIServer struct {
	client  *fileserve.Client
	cfg     config.AppConfig
	version string
	server  Server
	router  chi.Router
	logger  *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given fileserve Client.
// cfg supplies the listen address, the CORS origins and the MCP read cap.
func NewAPIServer(client *fileserve.Client, cfg config.AppConfig, version string) *APIServer {
	return &APIServer{
		client:  client,
		cfg:     cfg,
		version: version,
		server:  NewServer(cfg.Addr(), client.Logger()),
		logger:  client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe serves the standard routes only.
func (a *APIServer) Router() chi.Router {
	if a.router == nil {
		a.router = chi.NewRouter()
	}
	return a.router
}

// MountRoutes wires up all v1 API routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

// mountRoutes wires up all v1 API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	filesRouter := v1.NewFilesRouter(c)
	transfersRouter := v1.NewTransfersRouter(c)
	downloadRouter := v1.NewDownloadRouter(c)
	streamRouter := v1.NewStreamRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		if origins := a.cfg.CORSAllowedOrigins(); len(origins) > 0 {
			r.Use(cors.Handler(corsOptions(origins)))
		}

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(listTimeout))
			r.Mount("/files", filesRouter.Routes())
			r.Mount("/transfers", transfersRouter.Routes())
		})

		// Content routes stream for as long as the client reads. chi's
		// Timeout would cancel the request context mid-body.
		r.Mount("/download", downloadRouter.Routes())
		r.Mount("/stream", streamRouter.Routes())
	})

	// MCP (Model Context Protocol) endpoint. No timeout middleware: MCP
	// manages its own session state via response headers, which is
	// incompatible with chi's Timeout middleware wrapping the ResponseWriter.
	mcpSrv := mcpinternal.NewServer(c.Files, c.Transfers, a.cfg.MCPMaxReadBytes(), a.version, a.logger)
	httpHandler := server.NewStreamableHTTPServer(mcpSrv.MCPServer())
	router.Mount("/mcp", httpHandler)
}

// corsOptions allows browsers on origins to issue range requests and read
// the range response headers.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Range", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders: []string{"Content-Range", "Accept-Ranges", "Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}
}

// DocsRouter returns a router for Swagger UI and OpenAPI spec.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

// ListenAndServe serves the API on the configured address until Shutdown.
func (a *APIServer) ListenAndServe() error {
	a.server.Router().Mount("/", a.Handler())
	return a.server.Start()
}

// Serve serves the API on ln until Shutdown. The router sits behind the
// server's request ID, real IP and panic recovery middleware.
func (a *APIServer) Serve(ln net.Listener) error {
	a.server.Router().Mount("/", a.Handler())
	return a.server.Serve(ln)
}

// Shutdown gracefully shuts down the server. Open streams get until ctx
// expires to finish. Calling Shutdown before ListenAndServe makes the
// later call return immediately.
func (a *APIServer) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
