package v1

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codecite/codecite"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/infrastructure/api/middleware"
)

// Request headers set by GitHub webhook deliveries.
const (
	eventTypeHeader = "X-GitHub-Event"
	signatureHeader = "X-Hub-Signature-256"
)

// maxWebhookBody caps the accepted delivery size at 25 MB, GitHub's own
// payload limit.
const maxWebhookBody = 25 << 20

// WebhooksRouter receives change notifications from the hosting provider.
type WebhooksRouter struct {
	client *codecite.Client
	logger *slog.Logger
}

// NewWebhooksRouter creates a new WebhooksRouter.
func NewWebhooksRouter(client *codecite.Client) *WebhooksRouter {
	return &WebhooksRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for webhook endpoints.
func (r *WebhooksRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/github", r.ReceiveGitHub)

	return router
}

// ReceiveGitHub handles POST /api/v1/webhooks/github. The signature is
// verified against the raw body before anything else happens.
func (r *WebhooksRouter) ReceiveGitHub(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "unreadable body", err), r.logger)
		return
	}

	events, err := r.client.Pipeline.HandleWebhook(ctx,
		req.Header.Get(eventTypeHeader), body, req.Header.Get(signatureHeader))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resources := make([]*jsonapi.Resource, len(events))
	for i, ev := range events {
		resources[i] = jsonapi.EventResource(ev)
	}

	doc := jsonapi.NewListResponse(resources)
	doc.Meta = &jsonapi.Meta{"events_created": len(events)}
	middleware.WriteJSON(w, http.StatusAccepted, doc)
}
