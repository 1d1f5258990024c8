// Package tasks, business logic. Validation happens here; the store only sees
// well-formed writes. Every operation takes the authenticated user id supplied
// by the router and never reaches outside that user's tasks.
package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/user/taskserver-go/apperror"
)

// Service provides task operations over a Store.
type Service struct {
	store Store
}

// NewService creates a new tasks Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// notFound converts the store sentinel into the client-facing 404. An
// ownership mismatch deliberately produces the same error as a missing id.
func notFound(err error) error {
	if errors.Is(err, ErrTaskNotFound) {
		return apperror.NewNotFoundError("task not found", nil)
	}
	return apperror.NewDatabaseError("task store failure", err)
}

// validatePriority checks the optional single-character priority class.
func validatePriority(priority string) error {
	if len([]rune(priority)) != 1 {
		return apperror.NewValidationError("priority must be a single character", nil)
	}
	return nil
}

// Create adds a task owned by userID. Title and description are required;
// the new task starts incomplete with no priority.
func (s *Service) Create(ctx context.Context, userID int, req CreateTaskRequest) (*Task, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, apperror.NewValidationError("title and description are required", nil)
	}

	task, err := s.store.Insert(ctx, userID, req.Title, req.Description)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create task", err)
	}
	return task, nil
}

// Get returns one of the caller's tasks.
func (s *Service) Get(ctx context.Context, userID, taskID int) (*Task, error) {
	task, err := s.store.Get(ctx, userID, taskID)
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// List returns the caller's tasks in insertion order. The result is never nil,
// so an empty list serializes as [] rather than null.
func (s *Service) List(ctx context.Context, userID int) ([]Task, error) {
	tasks, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list tasks", err)
	}
	if tasks == nil {
		tasks = make([]Task, 0)
	}
	return tasks, nil
}

// Update applies a partial update: only the supplied fields change. Supplied
// fields are validated the same way as at creation; an update carrying no
// fields at all is rejected.
func (s *Service) Update(ctx context.Context, userID, taskID int, req UpdateTaskRequest, completedAtSet bool) (*Task, error) {
	patch := Patch{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		CompletedAt:    req.CompletedAt,
		SetCompletedAt: completedAtSet,
	}

	if patch.empty() {
		return nil, apperror.NewValidationError("no fields provided for update", nil)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperror.NewValidationError("title must not be empty", nil)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return nil, apperror.NewValidationError("description must not be empty", nil)
	}
	if patch.Priority != nil {
		if err := validatePriority(*patch.Priority); err != nil {
			return nil, err
		}
	}

	task, err := s.store.Update(ctx, userID, taskID, patch)
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// Complete stamps completed_at with the current time. Completing a task that
// is already complete is not an error and leaves it complete.
func (s *Service) Complete(ctx context.Context, userID, taskID int) error {
	now := time.Now()
	if err := s.store.SetCompleted(ctx, userID, taskID, &now); err != nil {
		return notFound(err)
	}
	return nil
}

// Uncomplete resets completed_at to null. Idempotent like Complete.
func (s *Service) Uncomplete(ctx context.Context, userID, taskID int) error {
	if err := s.store.SetCompleted(ctx, userID, taskID, nil); err != nil {
		return notFound(err)
	}
	return nil
}

// Delete soft-deletes a task. The task disappears from every later read and
// write, so a repeated delete reports not found.
func (s *Service) Delete(ctx context.Context, userID, taskID int) error {
	if err := s.store.SoftDelete(ctx, userID, taskID); err != nil {
		return notFound(err)
	}
	return nil
}
