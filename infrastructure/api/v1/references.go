package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/infrastructure/api/middleware"
	"github.com/codecite/codecite/infrastructure/api/v1/dto"
)

// ReferencesRouter handles citation reference API endpoints.
type ReferencesRouter struct {
	client *codecite.Client
	logger *slog.Logger
}

// NewReferencesRouter creates a new ReferencesRouter.
func NewReferencesRouter(client *codecite.Client) *ReferencesRouter {
	return &ReferencesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for reference endpoints.
func (r *ReferencesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/scan", r.Scan)

	return router
}

// List handles GET /api/v1/references. Optional query parameters:
// repository=owner/name, stale=true.
func (r *ReferencesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	filters := []repository.Option{}
	if full := req.URL.Query().Get("repository"); full != "" {
		owner, name, ok := strings.Cut(full, "/")
		if !ok {
			middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "repository filter must be owner/name", nil), r.logger)
			return
		}
		filters = append(filters,
			repository.WithCondition("repo_owner", owner),
			repository.WithCondition("repo_name", name))
	}
	if req.URL.Query().Get("stale") == "true" {
		filters = append(filters, repository.WithCondition("stale", true))
	}

	opts := append([]repository.Option{}, filters...)
	opts = append(opts, repository.WithOrderAsc("created_at"))
	opts = append(opts, pagination.Options()...)

	refs, err := r.client.References.Find(ctx, opts...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.client.References.Count(ctx, filters...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(refs))
	for i, ref := range refs {
		resources[i] = jsonapi.ReferenceResource(ref)
	}

	doc := jsonapi.NewListResponse(resources)
	doc.Meta = PaginationMeta(pagination, total)
	doc.Links = PaginationLinks(req, pagination, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Scan handles POST /api/v1/references/scan: extract citation links from a
// markdown document and register them as references.
func (r *ReferencesRouter) Scan(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}
	if body.Data.Attributes.Document == "" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "document is required", nil), r.logger)
		return
	}

	refs, err := r.client.Scan.ScanDocument(ctx, body.Data.Attributes.Document)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(refs))
	for i, ref := range refs {
		resources[i] = jsonapi.ReferenceResource(ref)
	}

	doc := jsonapi.NewListResponse(resources)
	doc.Meta = &jsonapi.Meta{"references_created": len(refs)}
	middleware.WriteJSON(w, http.StatusCreated, doc)
}
