package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codecite/codecite"
	apimiddleware "github.com/codecite/codecite/infrastructure/api/middleware"
	v1 "github.com/codecite/codecite/infrastructure/api/v1"
)

// APIServer provides an HTTP API backed by a codecite Client.
//
// Write protection: mutating endpoints under /api/v1 require a valid API key
// when keys are configured, except the webhook receiver, which authenticates
// deliveries by HMAC signature instead.
type APIServer struct {
	client       *codecite.Client
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given codecite Client.
func NewAPIServer(client *codecite.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
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

	webhooksRouter := v1.NewWebhooksRouter(c)
	reposRouter := v1.NewRepositoriesRouter(c)
	eventsRouter := v1.NewEventsRouter(c)
	jobsRouter := v1.NewJobsRouter(c)
	referencesRouter := v1.NewReferencesRouter(c)

	router.Use(apimiddleware.Logging(a.logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Webhook deliveries carry their own HMAC signature; no API key.
		r.Mount("/webhooks", webhooksRouter.Routes())

		// Everything else: mutating methods require a valid API key.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtect(apimiddleware.NewAuthConfigWithKeys(c.APIKeys())))
			r.Mount("/repositories", reposRouter.Routes())
			r.Mount("/events", eventsRouter.Routes())
			r.Mount("/jobs", jobsRouter.Routes())
			r.Mount("/references", referencesRouter.Routes())
		})
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
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
