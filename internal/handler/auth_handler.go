package handlers

import (
	"net/http"

	"blogapi/internal/service"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.UserService.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.UserService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, result, http.StatusOK)
}
