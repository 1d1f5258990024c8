// Package tasks implements the task store: CRUD and the completion state
// machine, with every operation scoped to the authenticated owner. This file
// defines the Task model.
package tasks

import "time"

// Task represents a single task owned by exactly one user.
//
// Only the contract fields are serialized. The owner id never appears in a
// response, and soft-deleted tasks are invisible to every operation, so
// DeletedAt stays internal too.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    *string    `json:"priority"`     // single character, e.g. "A"; nil when unset
	CompletedAt *time.Time `json:"completed_at"` // nil means incomplete
	UserID      int        `json:"-"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"-"`
}

// Completed reports whether the task is in the completed state.
func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}
