package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/infrastructure/api"
	"github.com/snapvec/snapvec/infrastructure/provider"
	"github.com/snapvec/snapvec/internal/database"
)

// ErrorBody is the JSON error response envelope.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError maps an error to an HTTP status code and writes a JSON error
// response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	detail := err.Error()

	var apiErr *api.APIError
	var authErr *api.AuthenticationError
	var validationErr *service.ValidationError
	var notFoundErr *service.EntityNotFoundError
	var providerErr *provider.Error

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		detail = apiErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
	}

	requestID := middleware.GetReqID(r.Context())

	if logger != nil {
		logger.Error("request error",
			"request_id", requestID,
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, ErrorBody{Error: detail, RequestID: requestID})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
