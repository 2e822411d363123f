package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jfelder/gatekeep-be/internal/services"
	"github.com/rs/zerolog/log"
)

// BackupHandler handles HTTP requests for configuration backups.
type BackupHandler struct {
	service services.BackupServiceProvider
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service services.BackupServiceProvider) *BackupHandler {
	return &BackupHandler{service: service}
}

// GetAll lists recorded backups.
func (h *BackupHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	backups, err := h.service.ListBackups()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list backups")
		writeError(w, http.StatusInternalServerError, "Failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Create takes a snapshot of the configuration root.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	// An empty body is fine; the service falls back to a default name.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	backup, err := h.service.CreateBackup(payload.Name)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create backup")
		writeError(w, http.StatusInternalServerError, "Failed to create backup")
		return
	}
	writeJSON(w, http.StatusCreated, backup)
}

// Delete removes a backup archive and its record.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteBackup(id); err != nil {
		log.Error().Err(err).Str("backup_id", id).Msg("Failed to delete backup")
		writeError(w, http.StatusInternalServerError, "Failed to delete backup")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
