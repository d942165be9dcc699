package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"blogapi/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	codeValidation      = "validation_error"
	codeConflict        = "conflict"
	codeNotFound        = "not_found"
	codeUnauthenticated = "unauthenticated"
	codeForbidden       = "forbidden"
	codeUpstream        = "upstream_failure"
	codeInternal        = "internal_error"

	internalErrorMessage = "internal server error"
)

// WriteError sends a JSON error body with the given status.
func WriteError(w http.ResponseWriter, message, code string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service failures onto HTTP statuses. Upstream and
// unexpected failures are logged and answered with a generic message.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		WriteError(w, err.Error(), codeValidation, http.StatusBadRequest)
	case errors.Is(err, service.ErrConflict):
		WriteError(w, err.Error(), codeConflict, http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, err.Error(), codeValidation, http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, err.Error(), codeNotFound, http.StatusNotFound)
	case errors.Is(err, service.ErrUnauthenticated):
		WriteError(w, err.Error(), codeUnauthenticated, http.StatusUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, err.Error(), codeForbidden, http.StatusForbidden)
	case errors.Is(err, service.ErrMediaUpload), errors.Is(err, service.ErrStore):
		h.Logger.Error("upstream failure", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, internalErrorMessage, codeUpstream, http.StatusInternalServerError)
	default:
		h.Logger.Error("unexpected error", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, internalErrorMessage, codeInternal, http.StatusInternalServerError)
	}
}
