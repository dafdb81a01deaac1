package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oribuyin/backend/internal/domain"
)

// envelope is the canonical response shape: code 1 success, 0 empty or
// handled absence, -1 failure.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondSuccess(w http.ResponseWriter, status int, message string, data any) {
	respond(w, status, envelope{Code: 1, Message: message, Data: data})
}

func respondEmpty(w http.ResponseWriter, message string) {
	respond(w, http.StatusOK, envelope{Code: 0, Message: message})
}

// respondError maps the error's kind to a transport status: validation 400,
// not-found 404, insufficient stock and conflicts 409, everything else 500.
// Discrimination is by errors.Is on the domain sentinels, never by message
// text.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respond(w, http.StatusBadRequest, envelope{Code: -1, Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		respond(w, http.StatusNotFound, envelope{Code: 0, Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict):
		respond(w, http.StatusConflict, envelope{Code: -1, Message: err.Error()})
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		respond(w, http.StatusInternalServerError, envelope{Code: -1, Message: "internal server error"})
	}
}
