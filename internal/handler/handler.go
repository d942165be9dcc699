package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"blogapi/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	UserService service.UserService
	AuthService service.AuthService
	PostService service.PostService
	Health      HealthChecker
	Validate    *validator.Validate
	Logger      *slog.Logger
}

func NewHandlers(services *service.Service, health HealthChecker, logger *slog.Logger) *Handlers {
	return &Handlers{
		UserService: services.User,
		AuthService: services.Auth,
		PostService: services.Post,
		Health:      health,
		Validate:    newValidator(),
		Logger:      logger,
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes registers every endpoint on a new router.
func (h *Handlers) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	users.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	users.HandleFunc("/refresh", h.RefreshToken).Methods(http.MethodPost)

	blog := r.PathPrefix("/blog").Subrouter()
	blog.HandleFunc("/posts", h.ListPosts).Methods(http.MethodGet)
	blog.HandleFunc("/post/{slug_or_id}", h.GetPost).Methods(http.MethodGet)
	blog.Handle("/create", h.RequireAuth(http.HandlerFunc(h.CreatePost))).Methods(http.MethodPost)
	blog.Handle("/edit/{post_id}", h.RequireAuth(http.HandlerFunc(h.EditPost))).Methods(http.MethodPatch)
	blog.Handle("/delete/{post_id}", h.RequireAuth(http.HandlerFunc(h.DeletePost))).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, "route not found", codeNotFound, http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, "method not allowed", codeValidation, http.StatusMethodNotAllowed)
	})

	return r
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Health.Ping(r.Context()); err != nil {
		h.Logger.Error("health check failed", "error", err)
		writeJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether to continue.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), codeValidation, http.StatusRequestEntityTooLarge)
			return false
		}
		WriteError(w, "invalid request body", codeValidation, http.StatusBadRequest)
		return false
	}

	if err := h.Validate.Struct(dst); err != nil {
		WriteError(w, validationMessage(err), codeValidation, http.StatusBadRequest)
		return false
	}

	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}
