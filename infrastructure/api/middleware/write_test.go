package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
	"github.com/codecite/codecite/internal/database"
)

func writeErrorStatus(t *testing.T, err error) (int, jsonapi.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/things", nil)
	w := httptest.NewRecorder()
	WriteError(w, req, err, nil)

	var doc jsonapi.Document
	if decodeErr := json.NewDecoder(w.Body).Decode(&doc); decodeErr != nil {
		t.Fatalf("decode error response: %v", decodeErr)
	}
	return w.Code, doc
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"api error", NewAPIError(http.StatusBadRequest, "bad input", nil), http.StatusBadRequest},
		{"server error", NewServerError(http.StatusServiceUnavailable, "down"), http.StatusServiceUnavailable},
		{"authentication", NewAuthenticationError("nope"), http.StatusUnauthorized},
		{"signature mismatch", event.ErrSignatureMismatch, http.StatusUnauthorized},
		{"signature missing", event.ErrSignatureMissing, http.StatusUnauthorized},
		{"not found", fmt.Errorf("load widget: %w", database.ErrNotFound), http.StatusNotFound},
		{"sync conflict", syncjob.ErrAlreadyRunning, http.StatusConflict},
		{"not cancellable", service.ErrJobNotCancellable, http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, doc := writeErrorStatus(t, tc.err)
			if code != tc.want {
				t.Errorf("status = %d, want %d", code, tc.want)
			}
			if len(doc.Errors) != 1 {
				t.Fatalf("errors = %d, want 1", len(doc.Errors))
			}
			if doc.Errors[0].Status != http.StatusText(tc.want) {
				t.Errorf("error status = %q, want %q", doc.Errors[0].Status, http.StatusText(tc.want))
			}
		})
	}
}

func TestWriteJSON_SetsContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"n": 1})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}
