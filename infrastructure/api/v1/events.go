package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/infrastructure/api/middleware"
)

// EventsRouter handles change event API endpoints.
type EventsRouter struct {
	client *codecite.Client
	logger *slog.Logger
}

// NewEventsRouter creates a new EventsRouter.
func NewEventsRouter(client *codecite.Client) *EventsRouter {
	return &EventsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for event endpoints.
func (r *EventsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/process", r.Process)
	router.Post("/{id}/requeue", r.Requeue)

	return router
}

// List handles GET /api/v1/events. An optional status query parameter
// filters by processing status.
func (r *EventsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	opts := []repository.Option{repository.WithOrderDesc("timestamp")}
	filters := []repository.Option{}
	if status := req.URL.Query().Get("status"); status != "" {
		if !event.Status(status).Valid() {
			middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "unknown status filter", nil), r.logger)
			return
		}
		filters = append(filters, repository.WithCondition("status", status))
	}
	opts = append(opts, filters...)
	opts = append(opts, pagination.Options()...)

	events, err := r.client.Events.Find(ctx, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.client.Events.Count(ctx, filters...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(events))
	for i, ev := range events {
		resources[i] = jsonapi.EventResource(ev)
	}

	doc := jsonapi.NewListResponse(resources)
	doc.Meta = PaginationMeta(pagination, total)
	doc.Links = PaginationLinks(req, pagination, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Process handles POST /api/v1/events/process, draining one batch of
// pending events.
func (r *EventsRouter) Process(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	processed, failed, err := r.client.Pipeline.ProcessPending(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, &jsonapi.Document{
		Meta: &jsonapi.Meta{"processed": processed, "failed": failed},
	})
}

// Requeue handles POST /api/v1/events/{id}/requeue.
func (r *EventsRouter) Requeue(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	ev, err := r.client.Pipeline.Requeue(ctx, chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.EventResource(ev)))
}
