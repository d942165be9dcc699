package handlers

import (
	"context"
	"net/http"
	"strings"

	"blogapi/internal/service"
)

type contextKey string

const actorKey contextKey = "actor"

// RequireAuth validates the bearer access token and stores the caller in the
// request context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteError(w, "authentication required", codeUnauthenticated, http.StatusUnauthorized)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			WriteError(w, "invalid authorization header", codeUnauthenticated, http.StatusUnauthorized)
			return
		}

		actor, err := h.AuthService.ParseAccessToken(token)
		if err != nil {
			WriteError(w, "invalid or expired token", codeUnauthenticated, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), *actor)))
	})
}

func WithActor(ctx context.Context, actor service.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (service.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(service.Actor)
	return actor, ok
}
