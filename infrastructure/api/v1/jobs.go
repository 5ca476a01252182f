package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/infrastructure/api/middleware"
)

// JobsRouter handles sync job API endpoints.
type JobsRouter struct {
	client *codecite.Client
	logger *slog.Logger
}

// NewJobsRouter creates a new JobsRouter.
func NewJobsRouter(client *codecite.Client) *JobsRouter {
	return &JobsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for job endpoints.
func (r *JobsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{id}", r.Get)
	router.Get("/{id}/progress", r.GetProgress)
	router.Post("/{id}/cancel", r.Cancel)

	return router
}

// Get handles GET /api/v1/jobs/{id}.
func (r *JobsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	job, err := r.client.Jobs.FindOne(ctx, repository.WithID(chi.URLParam(req, "id")))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.JobResource(job)))
}

// GetProgress handles GET /api/v1/jobs/{id}/progress. Live jobs report from
// the in-process registry; settled jobs report from their stored state.
func (r *JobsRouter) GetProgress(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	id := chi.URLParam(req, "id")

	progress, live := r.client.Sync.Registry().Progress(id)
	if !live {
		job, err := r.client.Jobs.FindOne(ctx, repository.WithID(id))
		if err != nil {
			middleware.WriteError(w, req, err, r.logger)
			return
		}
		progress = settledProgress(job)
	}

	middleware.WriteJSON(w, http.StatusOK, &jsonapi.Document{
		Data: jsonapi.NewResource("sync_job_progress", id, progress),
	})
}

// Cancel handles POST /api/v1/jobs/{id}/cancel.
func (r *JobsRouter) Cancel(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	id := chi.URLParam(req, "id")

	if err := r.client.Sync.Cancel(ctx, id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	job, err := r.client.Jobs.FindOne(ctx, repository.WithID(id))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.JobResource(job)))
}

// settledProgress derives the polling shape for a job that is no longer in
// the registry.
func settledProgress(job syncjob.Job) syncjob.Progress {
	p := syncjob.Progress{
		JobID:   job.ID(),
		Message: string(job.Status()),
	}
	switch job.Status() {
	case syncjob.StatusCompleted:
		p.Stage = syncjob.StageCompleted
		p.Progress = syncjob.StageCompleted.BaseProgress()
	case syncjob.StatusPending:
		p.Stage = syncjob.StageInitializing
	default:
		// failed or cancelled: whatever was reached is gone from the
		// registry, report zero rather than inventing a stage.
	}
	return p
}
