package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jfelder/gatekeep-be/internal/auth"
	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login, logout and session state requests.
type AuthHandler struct {
	users         services.UserServiceProvider
	events        services.EventServiceProvider
	tokens        *auth.Manager
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, events services.EventServiceProvider, tokens *auth.Manager, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, events: events, tokens: tokens, secureCookies: secureCookies}
}

// CredentialsPayload defines the structure for login and creation requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// State reports whether the directory is still empty and who the caller is.
// The frontend uses it to choose between the bootstrap and login forms.
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	username, authenticated := auth.CurrentUser(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"storeEmpty":    h.users.StoreEmpty(),
		"authenticated": authenticated,
		"username":      username,
	})
}

// Login authenticates a user and establishes a persistent session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		h.events.RecordEvent(services.EventLoginFailed, "warn", "Failed login attempt", payload.Username)
		// Same answer for unknown usernames and wrong passwords.
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.tokens.GenerateToken(user.Username, true)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to generate session token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	http.SetCookie(w, auth.SessionCookie(token, true, h.secureCookies))

	log.Info().Str("username", user.Username).Msg("User logged in")
	h.events.RecordEvent(services.EventLogin, "info", fmt.Sprintf("User '%s' logged in", user.Username), user.Username)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.Public(),
	})
}

// Logout tears the session down. It succeeds even without one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if username, ok := auth.CurrentUser(r.Context()); ok {
		h.events.RecordEvent(services.EventLogout, "info", fmt.Sprintf("User '%s' logged out", username), username)
	}
	http.SetCookie(w, auth.ClearedSessionCookie(h.secureCookies))
	w.WriteHeader(http.StatusNoContent)
}

// GetMe returns the caller's directory record.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user, ok := h.users.GetUser(username)
	if !ok {
		log.Warn().Str("username", username).Msg("User from token not found in directory")
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}
