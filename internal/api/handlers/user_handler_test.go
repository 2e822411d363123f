package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jfelder/gatekeep-be/internal/auth"
	"github.com/jfelder/gatekeep-be/internal/models"
	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authenticatedAs(req *http.Request, username string) *http.Request {
	claims := &auth.Claims{Username: username}
	return req.WithContext(context.WithValue(req.Context(), auth.UserClaimsKey, claims))
}

func TestCreateUser_BootstrapSignsCallerIn(t *testing.T) {
	users, events, tokens := newTestEnv(t)
	h := NewUserHandler(users, events, tokens, false)

	rec := httptest.NewRecorder()
	h.Create(rec, postJSON(t, CredentialsPayload{Username: "admin", Password: "password1"}, "/users"))

	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := sessionCookie(t, rec.Result())
	require.NotNil(t, cookie, "bootstrap creation must establish a session")
	claims, err := tokens.ValidateToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	var created models.PublicUser
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "admin", created.Username)
	assert.Contains(t, events.types, services.EventUserCreated)
	assert.Contains(t, events.types, services.EventLogin)
}

func TestCreateUser_UnauthenticatedRedirectedToLogin(t *testing.T) {
	users, events, tokens := newTestEnv(t)
	_, err := users.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	h := NewUserHandler(users, events, tokens, false)

	rec := httptest.NewRecorder()
	h.Create(rec, postJSON(t, CredentialsPayload{Username: "intruder", Password: "password2"}, "/users"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "/login", body["redirect"])
	assert.Len(t, users.ListUsers(), 1)
}

func TestCreateUser_AuthenticatedAddsWithoutSession(t *testing.T) {
	users, events, tokens := newTestEnv(t)
	_, err := users.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	h := NewUserHandler(users, events, tokens, false)

	req := authenticatedAs(postJSON(t, CredentialsPayload{Username: "second", Password: "password2"}, "/users"), "admin")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, sessionCookie(t, rec.Result()), "no new session on the normal admin path")
	assert.Len(t, users.ListUsers(), 2)
}

func TestCreateUser_ValidationAndConflict(t *testing.T) {
	users, events, tokens := newTestEnv(t)
	_, err := users.CreateUser("Admin", "password1", false)
	require.NoError(t, err)

	h := NewUserHandler(users, events, tokens, false)

	tests := []struct {
		name     string
		payload  CredentialsPayload
		wantCode int
	}{
		{"short password", CredentialsPayload{Username: "x", Password: "short"}, http.StatusBadRequest},
		{"missing password", CredentialsPayload{Username: "x"}, http.StatusBadRequest},
		{"case-insensitive duplicate", CredentialsPayload{Username: "admin", Password: "other1234"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authenticatedAs(postJSON(t, tt.payload, "/users"), "Admin")
			rec := httptest.NewRecorder()
			h.Create(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
	assert.Len(t, users.ListUsers(), 1)
}

func TestDeleteUser(t *testing.T) {
	users, events, tokens := newTestEnv(t)
	_, err := users.CreateUser("admin", "password1", false)
	require.NoError(t, err)
	_, err = users.CreateUser("bob", "password2", true)
	require.NoError(t, err)

	h := NewUserHandler(users, events, tokens, false)
	r := chi.NewRouter()
	r.Delete("/users/{username}", h.Delete)

	req := authenticatedAs(httptest.NewRequest(http.MethodDelete, "/users/bob", nil), "admin")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, users.ListUsers(), 1)
	assert.Contains(t, events.types, services.EventUserRemoved)
}

func TestDeleteUser_SelfRemovalRejected(t *testing.T) {
	users, events, tokens := newTestEnv(t)
	_, err := users.CreateUser("admin", "password1", false)
	require.NoError(t, err)

	h := NewUserHandler(users, events, tokens, false)
	r := chi.NewRouter()
	r.Delete("/users/{username}", h.Delete)

	req := authenticatedAs(httptest.NewRequest(http.MethodDelete, "/users/Admin", nil), "admin")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, users.ListUsers(), 1)
}
