package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gcOssi/spark6/internal/auth"
	"github.com/gcOssi/spark6/internal/models"
	"github.com/gcOssi/spark6/internal/services"
)

// TaskHandler handles HTTP requests for task management. Every route it
// serves sits behind the auth middleware, so requests always carry verified
// claims.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List handles the request to get all tasks owned by the caller.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	tasks, err := h.service.GetTasksForUser(claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to list tasks")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusOK, tasks, "tasks retrieved successfully")
}

// Get handles the request to get a single task by its id.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	task, err := h.service.GetTaskByID(claims.UserID, taskID(r))
	if err != nil {
		h.respondTaskError(w, err, claims.UserID)
		return
	}

	respond(w, http.StatusOK, task, "task retrieved successfully")
}

// Create handles the request to create a new task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var payload CreateTaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.CreateTask(claims.UserID, payload.Title, payload.Description)
	if err != nil {
		if errors.Is(err, services.ErrMissingTaskFields) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to create task")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, task, "task created successfully")
}

// Update handles partial updates to an existing task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var update models.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.UpdateTask(claims.UserID, taskID(r), update)
	if err != nil {
		h.respondTaskError(w, err, claims.UserID)
		return
	}

	respond(w, http.StatusOK, task, "task updated successfully")
}

// Delete handles the request to delete a task, returning the removed record.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	task, err := h.service.DeleteTask(claims.UserID, taskID(r))
	if err != nil {
		h.respondTaskError(w, err, claims.UserID)
		return
	}

	respond(w, http.StatusOK, task, "task deleted successfully")
}

func (h *TaskHandler) respondTaskError(w http.ResponseWriter, err error, userID int64) {
	if errors.Is(err, services.ErrTaskNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	log.Error().Err(err).Int64("user_id", userID).Msg("Task operation failed")
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// taskID parses the {id} URL parameter. An unparseable id yields zero, which
// can never match a task, so those requests fall into the not-found path.
func taskID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}
