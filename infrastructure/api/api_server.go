package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aleysapc/docsearch"
	apimiddleware "github.com/aleysapc/docsearch/infrastructure/api/middleware"
	v1 "github.com/aleysapc/docsearch/infrastructure/api/v1"
	mcpinternal "github.com/aleysapc/docsearch/internal/mcp"
)

// APIServer provides an HTTP API backed by a docsearch Client.
type APIServer struct {
	client       *docsearch.Client
	apiKeys      []string
	version      string
	corsOrigins  []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// ServerOption configures an APIServer.
type ServerOption func(*APIServer)

// WithVersion sets the version reported by the MCP endpoint.
func WithVersion(version string) ServerOption {
	return func(a *APIServer) { a.version = version }
}

// WithCORSOrigins sets the origins allowed to call /api/v1 from a browser.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(a *APIServer) { a.corsOrigins = origins }
}

// NewAPIServer creates a new APIServer wired to the given Client.
// apiKeys configures write-protection: mutating endpoints on documents,
// correspondence and drafts require a valid key. Search, jobs, MCP and docs
// remain open.
func NewAPIServer(client *docsearch.Client, apiKeys []string, opts ...ServerOption) *APIServer {
	a := &APIServer{
		client:      client,
		apiKeys:     apiKeys,
		version:     "dev",
		corsOrigins: []string{"*"},
		logger:      client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	router.Get("/healthz", a.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.APIKeyHeader, apimiddleware.CorrelationHeader},
			ExposedHeaders: []string{apimiddleware.CorrelationHeader},
			MaxAge:         300,
		}))

		r.Mount("/search", v1.NewSearchRouter(c).Routes())
		r.Mount("/jobs", v1.NewJobsRouter(c).Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(a.apiKeys))
			r.Mount("/documents", v1.NewDocumentsRouter(c).Routes())
			r.Mount("/correspondence", v1.NewCorrespondenceRouter(c).Routes())
			r.Mount("/drafts", v1.NewDraftsRouter(c).Routes())
		})
	})

	// MCP streams its responses, so it stays outside the Timeout middleware
	// which wraps the ResponseWriter.
	mcpSrv := mcpinternal.NewServer(c.Search, c.Jobs, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// DocsRouter returns a router for Swagger UI and the OpenAPI document.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	a.server = NewServer(addr, a.logger)

	if a.routerCalled && a.router != nil {
		a.server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(a.server.Router())
	}

	return a.server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
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
