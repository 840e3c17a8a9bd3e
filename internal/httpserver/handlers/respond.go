package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/service"
	"github.com/MrSnakeDoc/chatmark/internal/store"
)

const defaultMaxBodyBytes = 8 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps error families to HTTP statuses. Unknown records are
// checked before the tree family they belong to.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownRecord):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTree):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCapture):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidRecord),
		errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	status := statusOf(err)
	resp := errorResponse{Error: err.Error()}
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		resp.Code = svcErr.Code()
	}
	if status == http.StatusInternalServerError {
		d.Logger.Error("request failed", logger.Error(err))
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, d deps.Deps, format string, args ...any) {
	writeError(w, d, fmt.Errorf("%w: %s", service.ErrInvalidRequest, fmt.Sprintf(format, args...)))
}

// decode reads a JSON body into v, rejecting unknown trailing data.
func decode(w http.ResponseWriter, r *http.Request, d deps.Deps, v any) bool {
	limit := d.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(w, d, "request body is empty")
			return false
		}
		badRequest(w, d, "invalid json: %v", err)
		return false
	}
	if dec.More() {
		badRequest(w, d, "unexpected data after json body")
		return false
	}
	return true
}

func sessionParam(r *http.Request) string { return chi.URLParam(r, "session") }

func idParam(r *http.Request) string { return chi.URLParam(r, "id") }

// providerParam reads an optional provider name. Unknown names are an error.
func providerParam(raw string) (domain.Provider, error) {
	if raw == "" {
		return "", nil
	}
	p, ok := domain.ParseProvider(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown provider %q", service.ErrInvalidRequest, raw)
	}
	return p, nil
}
