package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/internal/database"
)

// WriteError writes a JSON:API formatted error response, mapping known
// domain errors to their status codes.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := err.Error()

	var apiErr *APIError
	var serverErr *ServerError

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		title = "API Error"
		detail = apiErr.Message()
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		title = "Server Error"
		detail = serverErr.Message()
	case errors.Is(err, ErrAuthentication),
		errors.Is(err, event.ErrSignatureMissing),
		errors.Is(err, event.ErrSignatureMalformed),
		errors.Is(err, event.ErrSignatureMismatch):
		status = http.StatusUnauthorized
		title = "Authentication Failed"
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
	case errors.Is(err, syncjob.ErrAlreadyRunning),
		errors.Is(err, service.ErrJobNotCancellable):
		status = http.StatusConflict
		title = "Conflict"
	}

	requestID := chimiddleware.GetReqID(r.Context())

	if logger != nil {
		logger.Error("request error",
			"request_id", requestID,
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	doc := jsonapi.NewErrorResponse(jsonapi.Error{
		ID:     requestID,
		Status: http.StatusText(status),
		Title:  title,
		Detail: detail,
	})

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
