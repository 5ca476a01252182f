package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/infrastructure/api/middleware"
	"github.com/codecite/codecite/infrastructure/api/v1/dto"
)

// RepositoriesRouter handles repository API endpoints.
type RepositoriesRouter struct {
	client *codecite.Client
	logger *slog.Logger
}

// NewRepositoriesRouter creates a new RepositoriesRouter.
func NewRepositoriesRouter(client *codecite.Client) *RepositoriesRouter {
	return &RepositoriesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for repository endpoints.
func (r *RepositoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Add)
	router.Get("/{id}", r.Get)
	router.Post("/{id}/sync", r.TriggerSync)

	return router
}

// List handles GET /api/v1/repositories.
func (r *RepositoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	pagination := ParsePagination(req)

	repos, err := r.client.Repositories.Find(ctx, pagination.Options()...)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.client.Repositories.Count(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(repos))
	for i, repo := range repos {
		resources[i] = jsonapi.RepositoryResource(repo)
	}

	doc := jsonapi.NewListResponse(resources)
	doc.Meta = PaginationMeta(pagination, total)
	doc.Links = PaginationLinks(req, pagination, total)
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Add handles POST /api/v1/repositories.
func (r *RepositoriesRouter) Add(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.RepositoryCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	attrs := body.Data.Attributes
	if attrs.Owner == "" || attrs.Name == "" || attrs.RemoteURL == "" {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "owner, name and remote_url are required", nil), r.logger)
		return
	}

	repo := repository.New(attrs.Owner, attrs.Name, attrs.RemoteURL)
	if attrs.DefaultBranch != "" {
		repo = repo.WithDefaultBranch(attrs.DefaultBranch)
	}
	if attrs.SyncFrequency != "" {
		freq := repository.SyncFrequency(attrs.SyncFrequency)
		if freq != repository.SyncDaily && freq != repository.SyncManual {
			middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "sync_frequency must be daily or manual", nil), r.logger)
			return
		}
		repo = repo.WithPolicy(repository.NewSyncPolicy(freq, attrs.SyncBranch, attrs.SyncIgnore))
	}

	saved, err := r.client.Repositories.Save(ctx, repo)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(jsonapi.RepositoryResource(saved)))
}

// Get handles GET /api/v1/repositories/{id}.
func (r *RepositoriesRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), r.logger)
		return
	}

	repo, err := r.client.Repositories.FindOne(ctx, repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.RepositoryResource(repo)))
}

// TriggerSync handles POST /api/v1/repositories/{id}/sync. The job is
// created synchronously so exclusivity conflicts surface as 409; execution
// happens in the background.
func (r *RepositoriesRouter) TriggerSync(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid repository id", err), r.logger)
		return
	}

	job, err := r.client.Sync.Trigger(ctx, id, syncjob.TypeManual)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	go func() {
		if err := r.client.Sync.Execute(context.Background(), job); err != nil {
			r.logger.Error("sync did not settle",
				slog.String("job_id", job.ID()),
				slog.String("error", err.Error()),
			)
		}
	}()

	middleware.WriteJSON(w, http.StatusAccepted, jsonapi.NewSingleResponse(jsonapi.JobResource(job)))
}
