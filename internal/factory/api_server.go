package factory

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	"github.com/snapvec/snapvec"
	apimiddleware "github.com/snapvec/snapvec/infrastructure/api/middleware"
	v1 "github.com/snapvec/snapvec/infrastructure/api/v1"
	mcpinternal "github.com/snapvec/snapvec/internal/mcp"
)

// APIServer provides an HTTP API backed by a snapvec Client.
type APIServer struct {
	client       *snapvec.Client
	apiKeys      []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given snapvec Client.
// apiKeys configures write-protection: mutating endpoints under
// /api/v1/embeddings require a valid key. Search, similar, stats, status,
// health, and MCP remain open.
func NewAPIServer(client *snapvec.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client:  client,
		apiKeys: apiKeys,
		logger:  client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call
// MountRoutes(). If not called, ListenAndServe creates a default router
// with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all v1 API routes on the router.
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	searchRouter := v1.NewSearchRouter(c)
	embeddingsRouter := v1.NewEmbeddingsRouter(c)
	statusRouter := v1.NewStatusRouter(c)

	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(a.logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Open routes. Search is a read-only POST.
		r.Mount("/search", searchRouter.Routes())
		r.Mount("/similar", searchRouter.SimilarRoutes())
		r.Mount("/stats", statusRouter.StatsRoutes())
		r.Mount("/health", statusRouter.HealthRoutes())

		// Write-protected routes. Mutating methods require a valid API key;
		// GET /embeddings/status stays open.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtect(apimiddleware.NewAuthConfigWithKeys(a.apiKeys)))
			r.Mount("/embeddings", embeddingsRouter.Routes())
		})
	})

	// MCP endpoint streams responses and manages its own session state, so
	// no timeout middleware applies here.
	mcpSrv := mcpinternal.NewServer(c.Search, snapvec.Version, a.logger)
	httpHandler := server.NewStreamableHTTPServer(mcpSrv.MCPServer())
	router.Mount("/mcp", httpHandler)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers
// and tests.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
