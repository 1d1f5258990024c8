package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/user/taskserver-go/apperror"
)

const (
	ownerID    = 1
	strangerID = 2
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemStore())
}

func createTask(t *testing.T, service *Service, userID int, title, description string) *Task {
	t.Helper()
	task, err := service.Create(context.Background(), userID, CreateTaskRequest{
		Title:       title,
		Description: description,
	})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", title, err)
	}
	return task
}

func strPtr(s string) *string { return &s }

func TestCreateTask(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	task := createTask(t, service, ownerID, "water the plants", "the ones on the balcony")

	if task.ID == 0 {
		t.Error("expected a non-zero task id")
	}
	if task.Title != "water the plants" {
		t.Errorf("title = %q, want %q", task.Title, "water the plants")
	}
	if task.Priority != nil {
		t.Errorf("new task priority = %q, want nil", *task.Priority)
	}
	if task.CompletedAt != nil {
		t.Errorf("new task completed_at = %v, want nil", *task.CompletedAt)
	}
}

func TestCreateTaskRequiresFields(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	cases := []CreateTaskRequest{
		{Title: "", Description: "something"},
		{Title: "something", Description: ""},
		{Title: "   ", Description: "something"},
		{},
	}
	for _, req := range cases {
		if _, err := service.Create(context.Background(), ownerID, req); !apperror.IsValidationError(err) {
			t.Errorf("Create(%+v): expected a validation error, got %v", req, err)
		}
	}
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	created := createTask(t, service, ownerID, "title", "description")

	got, err := service.Get(context.Background(), ownerID, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title {
		t.Errorf("Get returned %+v, want %+v", got, created)
	}
}

func TestGetUnknownTask(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	if _, err := service.Get(context.Background(), ownerID, 999); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found for an unknown id, got %v", err)
	}
}

func TestCrossUserAccessReportsNotFound(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	task := createTask(t, service, ownerID, "secret plans", "do not read")

	if _, err := service.Get(context.Background(), strangerID, task.ID); !apperror.IsNotFound(err) {
		t.Errorf("Get by another user: expected not found, got %v", err)
	}
	if _, err := service.Update(context.Background(), strangerID, task.ID, UpdateTaskRequest{Title: strPtr("stolen")}, false); !apperror.IsNotFound(err) {
		t.Errorf("Update by another user: expected not found, got %v", err)
	}
	if err := service.Complete(context.Background(), strangerID, task.ID); !apperror.IsNotFound(err) {
		t.Errorf("Complete by another user: expected not found, got %v", err)
	}
	if err := service.Delete(context.Background(), strangerID, task.ID); !apperror.IsNotFound(err) {
		t.Errorf("Delete by another user: expected not found, got %v", err)
	}

	// The owner still sees an untouched task.
	got, err := service.Get(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("Get by owner failed: %v", err)
	}
	if got.Title != "secret plans" {
		t.Errorf("title = %q after foreign updates, want unchanged", got.Title)
	}
}

func TestListTasksInInsertionOrder(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		createTask(t, service, ownerID, title, "description")
	}
	createTask(t, service, strangerID, "someone else's", "not listed")

	tasks, err := service.List(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != len(titles) {
		t.Fatalf("List returned %d tasks, want %d", len(tasks), len(titles))
	}
	for i, task := range tasks {
		if task.Title != titles[i] {
			t.Errorf("tasks[%d].Title = %q, want %q", i, task.Title, titles[i])
		}
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	tasks, err := service.List(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if tasks == nil {
		t.Fatal("List returned nil, want an empty slice")
	}
	if len(tasks) != 0 {
		t.Fatalf("List returned %d tasks, want 0", len(tasks))
	}
}

func TestUpdatePriorityOnly(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	created := createTask(t, service, ownerID, "title", "description")

	updated, err := service.Update(context.Background(), ownerID, created.ID, UpdateTaskRequest{
		Priority: strPtr("A"),
	}, false)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Priority == nil || *updated.Priority != "A" {
		t.Errorf("priority = %v, want A", updated.Priority)
	}
	if updated.Title != "title" || updated.Description != "description" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
}

func TestUpdateValidation(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	created := createTask(t, service, ownerID, "title", "description")

	cases := []struct {
		name string
		req  UpdateTaskRequest
	}{
		{"empty patch", UpdateTaskRequest{}},
		{"blank title", UpdateTaskRequest{Title: strPtr("")}},
		{"blank description", UpdateTaskRequest{Description: strPtr("  ")}},
		{"long priority", UpdateTaskRequest{Priority: strPtr("AB")}},
		{"empty priority", UpdateTaskRequest{Priority: strPtr("")}},
	}
	for _, tc := range cases {
		if _, err := service.Update(context.Background(), ownerID, created.ID, tc.req, false); !apperror.IsValidationError(err) {
			t.Errorf("%s: expected a validation error, got %v", tc.name, err)
		}
	}
}

func TestUpdateCompletedAtDirectly(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	created := createTask(t, service, ownerID, "title", "description")
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	updated, err := service.Update(context.Background(), ownerID, created.ID, UpdateTaskRequest{
		CompletedAt: &stamp,
	}, true)
	if err != nil {
		t.Fatalf("Update with completed_at failed: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(stamp) {
		t.Errorf("completed_at = %v, want %v", updated.CompletedAt, stamp)
	}

	// An explicit null clears the stamp; absence would have been an empty
	// patch instead.
	cleared, err := service.Update(context.Background(), ownerID, created.ID, UpdateTaskRequest{}, true)
	if err != nil {
		t.Fatalf("Update clearing completed_at failed: %v", err)
	}
	if cleared.CompletedAt != nil {
		t.Errorf("completed_at = %v after clearing, want nil", cleared.CompletedAt)
	}
}

func TestCompleteAndUncomplete(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	created := createTask(t, service, ownerID, "title", "description")

	if err := service.Complete(context.Background(), ownerID, created.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	got, err := service.Get(context.Background(), ownerID, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatal("completed_at is nil after Complete")
	}
	if !got.Completed() {
		t.Error("Completed() = false after Complete")
	}

	// Completing again succeeds and leaves the task complete.
	if err := service.Complete(context.Background(), ownerID, created.ID); err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}

	if err := service.Uncomplete(context.Background(), ownerID, created.ID); err != nil {
		t.Fatalf("Uncomplete failed: %v", err)
	}
	got, err = service.Get(context.Background(), ownerID, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CompletedAt != nil {
		t.Errorf("completed_at = %v after Uncomplete, want nil", got.CompletedAt)
	}

	// Uncompleting an already incomplete task is also fine.
	if err := service.Uncomplete(context.Background(), ownerID, created.ID); err != nil {
		t.Fatalf("second Uncomplete failed: %v", err)
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	if err := service.Complete(context.Background(), ownerID, 999); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := service.Uncomplete(context.Background(), ownerID, 999); !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	service := newTestService(t)

	created := createTask(t, service, ownerID, "title", "description")
	keep := createTask(t, service, ownerID, "keep me", "description")

	if err := service.Delete(context.Background(), ownerID, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// The deleted task is gone from every read and write.
	if _, err := service.Get(context.Background(), ownerID, created.ID); !apperror.IsNotFound(err) {
		t.Errorf("Get after delete: expected not found, got %v", err)
	}
	if _, err := service.Update(context.Background(), ownerID, created.ID, UpdateTaskRequest{Title: strPtr("back")}, false); !apperror.IsNotFound(err) {
		t.Errorf("Update after delete: expected not found, got %v", err)
	}
	if err := service.Delete(context.Background(), ownerID, created.ID); !apperror.IsNotFound(err) {
		t.Errorf("second Delete: expected not found, got %v", err)
	}

	tasks, err := service.List(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("List after delete = %+v, want only task %d", tasks, keep.ID)
	}
}
