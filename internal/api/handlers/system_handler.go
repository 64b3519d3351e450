package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/gcOssi/spark6/internal/services"
)

// SystemHandler serves the health check and the unauthenticated debug routes.
type SystemHandler struct {
	users     services.UserServiceProvider
	events    services.EventServiceProvider
	startedAt time.Time
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(users services.UserServiceProvider, events services.EventServiceProvider, startedAt time.Time) *SystemHandler {
	return &SystemHandler{users: users, events: events, startedAt: startedAt}
}

// Health reports process liveness, uptime and basic memory stats.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"uptimeSeconds": time.Since(h.startedAt).Seconds(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		payload["memoryUsedPercent"] = vm.UsedPercent
	}

	respond(w, http.StatusOK, payload, "backend running")
}

// DebugUsers lists account identities for local development. Password
// material is reduced to a boolean.
func (h *SystemHandler) DebugUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users for debug route")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, users, "user listing for debugging")
}

// DebugEvents returns the most recent activity records.
func (h *SystemHandler) DebugEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.GetRecentEvents(50)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list events for debug route")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, events, "recent events for debugging")
}
