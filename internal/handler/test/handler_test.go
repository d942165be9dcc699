package test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"blogapi/internal/config"
	handlers "blogapi/internal/handler"
	"blogapi/internal/models"
	"blogapi/internal/service"
)

type testEnv struct {
	users   *MockUserService
	posts   *MockPostService
	health  *MockHealth
	auth    service.AuthService
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	auth := service.NewAuthService(&config.Config{
		JWTSecretKey:         "handler-secret",
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
	})

	env := &testEnv{
		users:  new(MockUserService),
		posts:  new(MockPostService),
		health: new(MockHealth),
		auth:   auth,
	}

	h := handlers.NewHandlers(&service.Service{
		User: env.users,
		Post: env.posts,
		Auth: auth,
	}, env.health, slog.New(slog.NewTextHandler(io.Discard, nil)))
	env.handler = h.Routes()

	return env
}

// bearer returns an Authorization header value for the given actor.
func (e *testEnv) bearer(t *testing.T, actor service.Actor) string {
	t.Helper()

	tokens, err := e.auth.IssueTokens(&models.User{ID: actor.UserID, Name: actor.Name, Role: actor.Role})
	require.NoError(t, err)
	return "Bearer " + tokens.AccessToken
}

func (e *testEnv) do(method, target string, body any, authHeader string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestNewHandlers(t *testing.T) {
	svc := &service.Service{
		User: new(MockUserService),
		Post: new(MockPostService),
		Auth: service.NewAuthService(&config.Config{JWTSecretKey: "x"}),
	}

	handler := handlers.NewHandlers(svc, new(MockHealth), slog.Default())

	assert.NotNil(t, handler.UserService)
	assert.NotNil(t, handler.AuthService)
	assert.NotNil(t, handler.PostService)
	assert.NotNil(t, handler.Health)
	assert.NotNil(t, handler.Validate)
	assert.NotNil(t, handler.Routes())
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   string
	}{
		{name: "store reachable", expectedStatus: http.StatusOK, expectedBody: "ok"},
		{name: "store down", pingErr: errors.New("dial tcp: refused"), expectedStatus: http.StatusServiceUnavailable, expectedBody: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.health.On("Ping", mock.Anything).Return(tt.pingErr).Once()

			rr := env.do(http.MethodGet, "/health", nil, "")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedBody, body["status"])
			env.health.AssertExpectations(t)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		leaksCause     bool
	}{
		{name: "validation", err: service.ErrEmptySlug, expectedStatus: http.StatusBadRequest, expectedCode: "validation_error", leaksCause: true},
		{name: "slug conflict", err: service.ErrSlugConflict, expectedStatus: http.StatusBadRequest, expectedCode: "conflict", leaksCause: true},
		{name: "not found", err: service.ErrNotFound, expectedStatus: http.StatusNotFound, expectedCode: "not_found", leaksCause: true},
		{name: "store failure", err: errors.Join(service.ErrStore, errors.New("secret upstream detail")), expectedStatus: http.StatusInternalServerError, expectedCode: "upstream_failure"},
		{name: "media upload failure", err: errors.Join(service.ErrMediaUpload, errors.New("secret upstream detail")), expectedStatus: http.StatusInternalServerError, expectedCode: "upstream_failure"},
		{name: "unexpected", err: errors.New("secret upstream detail"), expectedStatus: http.StatusInternalServerError, expectedCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.posts.On("GetPost", mock.Anything, "some-slug").Return(nil, tt.err).Once()

			rr := env.do(http.MethodGet, "/blog/post/some-slug", nil, "")

			assert.Equal(t, tt.expectedStatus, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, tt.expectedCode, body.Code)
			if tt.leaksCause {
				assert.Equal(t, tt.err.Error(), body.Error)
			} else {
				assert.NotContains(t, body.Error, "secret upstream detail")
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeError(t, rr).Code)
}
