// Package tasks, HTTP handlers. All routes here sit behind the auth
// middleware; the owning user id always comes from the request context, never
// from the payload.
package tasks

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskserver-go/apperror"
	"github.com/user/taskserver-go/auth"
)

// Handlers wraps the tasks Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the task routes on the given (already authenticated)
// router group.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreateTask())
	r.Get("/", h.HandleListTasks())
	r.Get("/{id}", h.HandleGetTask())
	r.Patch("/{id}", h.HandleUpdateTask())
	r.Delete("/{id}", h.HandleDeleteTask())
	r.Put("/{id}/completed", h.HandleCompleteTask())
	r.Put("/{id}/uncompleted", h.HandleUncompleteTask())
}

// userID pulls the authenticated user id out of the context. A missing id
// means the middleware was not applied, which is a server bug rather than a
// client error, but it is still reported as 401 to avoid leaking topology.
func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("missing authentication", nil))
		return 0, false
	}
	return id, true
}

// taskID parses the {id} path parameter.
func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid task id", nil))
		return 0, false
	}
	return id, true
}

// HandleCreateTask godoc
// @Summary Create a task
// @Description Creates a task owned by the caller. The task starts incomplete with no priority.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Param task body tasks.CreateTaskRequest true "Title and description, both required"
// @Success 200 {object} tasks.TaskResponse "Created task"
// @Failure 400 {object} apperror.ErrorResponse "Missing fields or malformed body"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks [post]
func (h *Handlers) HandleCreateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		var req CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		task, err := h.service.Create(r.Context(), uid, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, TaskResponse{Data: *task})
	}
}

// HandleGetTask godoc
// @Summary Get a task
// @Description Returns one of the caller's tasks. Tasks of other users report not found.
// @Tags Tasks
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Param id path int true "Task id"
// @Success 200 {object} tasks.TaskResponse
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "Unknown id or not the caller's task"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id} [get]
func (h *Handlers) HandleGetTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		tid, ok := taskID(w, r)
		if !ok {
			return
		}

		task, err := h.service.Get(r.Context(), uid, tid)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, TaskResponse{Data: *task})
	}
}

// HandleListTasks godoc
// @Summary List the caller's tasks
// @Description Returns the caller's tasks in creation order. The response is a bare JSON array, without the data envelope used elsewhere.
// @Tags Tasks
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Success 200 {array} tasks.Task
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks [get]
func (h *Handlers) HandleListTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}

		list, err := h.service.List(r.Context(), uid)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, list)
	}
}

// HandleUpdateTask godoc
// @Summary Update a task
// @Description Partial update: only the supplied fields change. Unknown fields are rejected. completed_at may be written directly and behaves exactly like the completed/uncompleted endpoints.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Param id path int true "Task id"
// @Param task body tasks.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} tasks.TaskResponse "Updated task"
// @Failure 400 {object} apperror.ErrorResponse "Malformed body, unknown field, or invalid value"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "Unknown id or not the caller's task"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id} [patch]
func (h *Handlers) HandleUpdateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		tid, ok := taskID(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("failed to read request body", err))
			return
		}
		defer r.Body.Close()

		var req UpdateTaskRequest
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("invalid request body", err))
			return
		}

		// A pointer field cannot tell "completed_at": null apart from the key
		// being absent, and both are meaningful here: null means "mark
		// incomplete", absent means "leave unchanged".
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("invalid request body", err))
			return
		}
		_, completedAtSet := raw["completed_at"]

		if req.ID != 0 && req.ID != tid {
			auth.WriteError(w, r, apperror.NewValidationError("body id does not match path id", nil))
			return
		}

		task, err := h.service.Update(r.Context(), uid, tid, req, completedAtSet)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, TaskResponse{Data: *task})
	}
}

// HandleCompleteTask godoc
// @Summary Mark a task completed
// @Description Sets completed_at to the current time. Idempotent.
// @Tags Tasks
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Param id path int true "Task id"
// @Success 200 {object} tasks.MessageResponse
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "Unknown id or not the caller's task"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id}/completed [put]
func (h *Handlers) HandleCompleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		tid, ok := taskID(w, r)
		if !ok {
			return
		}

		if err := h.service.Complete(r.Context(), uid, tid); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, MessageResponse{Message: "task completed"})
	}
}

// HandleUncompleteTask godoc
// @Summary Mark a task not completed
// @Description Resets completed_at to null. Idempotent.
// @Tags Tasks
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Param id path int true "Task id"
// @Success 200 {object} tasks.MessageResponse
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "Unknown id or not the caller's task"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id}/uncompleted [put]
func (h *Handlers) HandleUncompleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		tid, ok := taskID(w, r)
		if !ok {
			return
		}

		if err := h.service.Uncomplete(r.Context(), uid, tid); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, MessageResponse{Message: "task uncompleted"})
	}
}

// HandleDeleteTask godoc
// @Summary Delete a task
// @Description Soft-deletes the task; it disappears from every later read and write.
// @Tags Tasks
// @Produce json
// @Param x-auth-token header string true "Session token"
// @Param id path int true "Task id"
// @Success 200 {object} tasks.MessageResponse
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "Unknown id or not the caller's task"
// @Failure 500 {object} apperror.ErrorResponse "Internal server error"
// @Router /api/v1/tasks/{id} [delete]
func (h *Handlers) HandleDeleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := userID(w, r)
		if !ok {
			return
		}
		tid, ok := taskID(w, r)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), uid, tid); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, MessageResponse{Message: "task deleted"})
	}
}
