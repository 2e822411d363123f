package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jfelder/gatekeep-be/internal/auth"
	"github.com/jfelder/gatekeep-be/internal/models"
	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/jfelder/gatekeep-be/internal/userstore"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for directory management.
type UserHandler struct {
	users         services.UserServiceProvider
	events        services.EventServiceProvider
	tokens        *auth.Manager
	secureCookies bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, events services.EventServiceProvider, tokens *auth.Manager, secureCookies bool) *UserHandler {
	return &UserHandler{users: users, events: events, tokens: tokens, secureCookies: secureCookies}
}

// Create adds a user to the directory. Unauthenticated requests are only
// served while the directory is empty; that first creation also signs the
// caller in as the new user.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	caller, authenticated := auth.CurrentUser(r.Context())
	if !authenticated && h.users.StoreEmpty() {
		log.Warn().Msg("Creating first user")
	}

	result, err := h.users.CreateUser(payload.Username, payload.Password, authenticated)
	switch {
	case errors.Is(err, services.ErrCreateNotAllowed):
		log.Error().Msg("User is not authenticated and user directory is not empty")
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":    err.Error(),
			"redirect": "/login",
		})
		return
	case errors.Is(err, services.ErrMissingCredentials), errors.Is(err, services.ErrPasswordTooShort):
		log.Warn().Str("username", payload.Username).Msg(err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, userstore.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	actor := caller
	if actor == "" {
		actor = result.User.Username
	}
	log.Info().Str("username", result.User.Username).Msg("User created successfully")
	h.events.RecordEvent(services.EventUserCreated, "info", fmt.Sprintf("User '%s' created", result.User.Username), actor)

	if result.EstablishSession {
		token, err := h.tokens.GenerateToken(result.User.Username, true)
		if err != nil {
			log.Error().Err(err).Str("username", result.User.Username).Msg("Failed to generate session token after bootstrap")
			writeError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		http.SetCookie(w, auth.SessionCookie(token, true, h.secureCookies))
		h.events.RecordEvent(services.EventLogin, "info", fmt.Sprintf("User '%s' logged in", result.User.Username), result.User.Username)
	}

	writeJSON(w, http.StatusCreated, result.User.Public())
}

// GetAll lists all active users.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users := h.users.ListUsers()
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete removes a user from the directory. Callers cannot remove their own
// account, so an admin cannot lock themselves out mid-session.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	caller, _ := auth.CurrentUser(r.Context())
	if strings.EqualFold(caller, username) {
		writeError(w, http.StatusBadRequest, "Cannot remove your own account")
		return
	}

	if err := h.users.RemoveUser(username); err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to remove user")
		writeError(w, http.StatusInternalServerError, "Failed to remove user")
		return
	}

	log.Info().Str("username", username).Str("by", caller).Msg("User removed")
	h.events.RecordEvent(services.EventUserRemoved, "info", fmt.Sprintf("User '%s' removed", username), caller)
	w.WriteHeader(http.StatusNoContent)
}
