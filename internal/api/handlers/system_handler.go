package handlers

import (
	"net/http"

	"github.com/jfelder/gatekeep-be/internal/monitoring"
)

// SystemHandler serves host resource snapshots for the dashboard.
type SystemHandler struct {
	monitor *monitoring.SystemMonitor
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(monitor *monitoring.SystemMonitor) *SystemHandler {
	return &SystemHandler{monitor: monitor}
}

// Get returns the latest system snapshot.
func (h *SystemHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Latest())
}
