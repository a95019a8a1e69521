// Package api provides HTTP server and API documentation.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/fileserve/infrastructure/api/docs"
)

// SwaggerUIHTML returns the HTML template for Swagger UI.
func SwaggerUIHTML(specURL string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>fileserve API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow: -moz-scrollbars-vertical; overflow-y: scroll; }
        *, *:before, *:after { box-sizing: inherit; }
        body { margin:0; background: #fafafa; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-standalone-preset.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            const ui = SwaggerUIBundle({
                url: "` + specURL + `",
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                plugins: [
                    SwaggerUIBundle.plugins.DownloadUrl
                ],
                layout: "StandaloneLayout"
            });
            window.ui = ui;
        };
    </script>
</body>
</html>`
}

// DocsRouter sets up documentation routes.
type DocsRouter struct {
	specURL string
}

// NewDocsRouter creates a new documentation router.
func NewDocsRouter(specURL string) *DocsRouter {
	return &DocsRouter{specURL: specURL}
}

// Routes returns the chi router for documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	// Serve Swagger UI HTML
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(SwaggerUIHTML(d.specURL)))
	})

	// Serve the OpenAPI spec with the host and scheme of the incoming
	// request so that Swagger UI "Try it out" works on any host.
	router.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(OpenAPIDoc(r)))
	})

	return router
}

// OpenAPIDoc renders the registered OpenAPI document for the host that
// received r, honouring X-Forwarded-Proto and X-Forwarded-Host.
func OpenAPIDoc(r *http.Request) string {
	scheme := "https"
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	} else if r.TLS == nil {
		scheme = "http"
	}
	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}

	spec := *docs.SwaggerInfo
	spec.Host = host
	spec.Schemes = []string{scheme}
	return spec.ReadDoc()
}
