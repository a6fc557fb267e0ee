// Package api provides the HTTP server and API documentation.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aleysapc/docsearch/infrastructure/api/openapi"
)

// SwaggerUIHTML returns the HTML page that renders specURL with Swagger UI.
func SwaggerUIHTML(specURL string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>docsearch API</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        *, *:before, *:after { box-sizing: inherit; }
        body { margin:0; background: #fafafa; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "` + specURL + `",
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis]
            });
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

	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(SwaggerUIHTML(d.specURL)))
	})

	// The host and scheme follow the incoming request so that "Try it out"
	// works behind any proxy.
	router.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		spec := *openapi.SwaggerInfo
		spec.Host = r.Host
		if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
			spec.Host = forwarded
		}
		scheme := "https"
		if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
			scheme = forwarded
		} else if r.TLS == nil {
			scheme = "http"
		}
		spec.Schemes = []string{scheme}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(spec.ReadDoc()))
	})

	return router
}
