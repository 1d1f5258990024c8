// Package tasks, request/response payloads for the task endpoints.
package tasks

import "time"

// CreateTaskRequest is the body of POST /api/v1/tasks. Both fields are required.
type CreateTaskRequest struct {
	Title       string `json:"title" example:"water the plants"`
	Description string `json:"description" example:"the ones on the balcony"`
}

// UpdateTaskRequest is the body of PATCH /api/v1/tasks/{id}. All fields are
// optional; a nil pointer means "leave unchanged". The id, when present, must
// match the path id. Setting completed_at here is observably identical to the
// dedicated completed/uncompleted endpoints.
type UpdateTaskRequest struct {
	ID          int        `json:"id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskResponse wraps a single task in the standard data envelope. The list
// endpoint intentionally returns a bare array instead; that asymmetry is part
// of the wire contract and is preserved as-is.
type TaskResponse struct {
	Data Task `json:"data"`
}

// MessageResponse carries the confirmation bodies of the state-transition and
// delete endpoints.
type MessageResponse struct {
	Message string `json:"message" example:"task completed"`
}
