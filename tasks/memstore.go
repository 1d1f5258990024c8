package tasks

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store guarded by a single RWMutex. It backs the
// tests and mirrors the database semantics: lookups are keyed on
// (user id, task id), soft-deleted tasks are invisible, and List preserves
// insertion order. Mutations hold the write lock for their whole duration, so
// concurrent patches to one task serialize instead of interleaving.
type MemStore struct {
	mu sync.RWMutex

	nextID int
	tasks  map[int]*Task
	order  []int // task ids in insertion order
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		tasks:  make(map[int]*Task),
	}
}

func cloneTask(t *Task) *Task {
	out := *t
	if t.Priority != nil {
		p := *t.Priority
		out.Priority = &p
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		out.CompletedAt = &c
	}
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		out.DeletedAt = &d
	}
	return &out
}

// visible returns the live task only when it belongs to userID.
func (m *MemStore) visible(userID, taskID int) *Task {
	t, ok := m.tasks[taskID]
	if !ok || t.UserID != userID || t.DeletedAt != nil {
		return nil
	}
	return t
}

func (m *MemStore) Insert(_ context.Context, userID int, title, description string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &Task{
		ID:          m.nextID,
		Title:       title,
		Description: description,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}
	m.nextID++
	m.tasks[t.ID] = t
	m.order = append(m.order, t.ID)

	return cloneTask(t), nil
}

func (m *MemStore) Get(_ context.Context, userID, taskID int) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.visible(userID, taskID)
	if t == nil {
		return nil, ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (m *MemStore) List(_ context.Context, userID int) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]Task, 0)
	for _, id := range m.order {
		if t := m.visible(userID, id); t != nil {
			tasks = append(tasks, *cloneTask(t))
		}
	}
	return tasks, nil
}

func (m *MemStore) Update(_ context.Context, userID, taskID int, patch Patch) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.visible(userID, taskID)
	if t == nil {
		return nil, ErrTaskNotFound
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		p := *patch.Priority
		t.Priority = &p
	}
	if patch.SetCompletedAt {
		if patch.CompletedAt != nil {
			c := *patch.CompletedAt
			t.CompletedAt = &c
		} else {
			t.CompletedAt = nil
		}
	}

	return cloneTask(t), nil
}

func (m *MemStore) SetCompleted(_ context.Context, userID, taskID int, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.visible(userID, taskID)
	if t == nil {
		return ErrTaskNotFound
	}
	if completedAt != nil {
		c := *completedAt
		t.CompletedAt = &c
	} else {
		t.CompletedAt = nil
	}
	return nil
}

func (m *MemStore) SoftDelete(_ context.Context, userID, taskID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.visible(userID, taskID)
	if t == nil {
		return ErrTaskNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}
