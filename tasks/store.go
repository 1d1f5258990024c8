// Package tasks, storage layer. Every query is keyed on (user_id, id) and
// filtered on deleted_at IS NULL, so a task belonging to another user, or one
// that was soft-deleted, is indistinguishable from a task that never existed.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTaskNotFound is returned for unknown ids, soft-deleted tasks, and
// ownership mismatches alike.
var ErrTaskNotFound = errors.New("task not found")

// Patch carries the optional fields of a partial update. Nil means "leave
// unchanged". SetCompletedAt distinguishes "set completed_at to this value
// (possibly nil)" from "don't touch completed_at".
type Patch struct {
	Title          *string
	Description    *string
	Priority       *string
	CompletedAt    *time.Time
	SetCompletedAt bool
}

func (p Patch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && !p.SetCompletedAt
}

// Store is the persistence contract of the tasks module.
type Store interface {
	// Insert persists a new task for the given owner.
	Insert(ctx context.Context, userID int, title, description string) (*Task, error)
	// Get returns the task only if it exists, is not soft-deleted, and is
	// owned by userID; otherwise ErrTaskNotFound.
	Get(ctx context.Context, userID, taskID int) (*Task, error)
	// List returns the owner's live tasks in insertion order. Never nil.
	List(ctx context.Context, userID int) ([]Task, error)
	// Update applies the patch in a single atomic write and returns the
	// updated task. ErrTaskNotFound under the same rule as Get.
	Update(ctx context.Context, userID, taskID int, patch Patch) (*Task, error)
	// SetCompleted writes completed_at (nil to mark incomplete).
	// ErrTaskNotFound under the same rule as Get.
	SetCompleted(ctx context.Context, userID, taskID int, completedAt *time.Time) error
	// SoftDelete stamps deleted_at, hiding the task from all later operations.
	// ErrTaskNotFound under the same rule as Get.
	SoftDelete(ctx context.Context, userID, taskID int) error
}

// PgStore implements Store on a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const taskColumns = "id, title, description, priority, completed_at, user_id, deleted_at, created_at"

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.CompletedAt, &t.UserID, &t.DeletedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *PgStore) Insert(ctx context.Context, userID int, title, description string) (*Task, error) {
	query := `INSERT INTO tasks (user_id, title, description)
	          VALUES ($1, $2, $3)
	          RETURNING ` + taskColumns
	return scanTask(s.pool.QueryRow(ctx, query, userID, title, description))
}

func (s *PgStore) Get(ctx context.Context, userID, taskID int) (*Task, error) {
	query := `SELECT ` + taskColumns + `
	          FROM tasks
	          WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`
	return scanTask(s.pool.QueryRow(ctx, query, userID, taskID))
}

func (s *PgStore) List(ctx context.Context, userID int) ([]Task, error) {
	query := `SELECT ` + taskColumns + `
	          FROM tasks
	          WHERE user_id = $1 AND deleted_at IS NULL
	          ORDER BY id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.CompletedAt, &t.UserID, &t.DeletedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update builds the SET clause dynamically from the supplied fields and
// applies it in one statement, so two concurrent patches to the same task
// serialize at the row rather than interleaving field by field.
func (s *PgStore) Update(ctx context.Context, userID, taskID int, patch Patch) (*Task, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *patch.Title)
		argID++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *patch.Description)
		argID++
	}
	if patch.Priority != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", argID))
		args = append(args, *patch.Priority)
		argID++
	}
	if patch.SetCompletedAt {
		setClauses = append(setClauses, fmt.Sprintf("completed_at = $%d", argID))
		args = append(args, patch.CompletedAt)
		argID++
	}

	if len(setClauses) == 0 {
		return s.Get(ctx, userID, taskID)
	}

	args = append(args, userID, taskID)
	query := fmt.Sprintf(`UPDATE tasks
	          SET %s
	          WHERE user_id = $%d AND id = $%d AND deleted_at IS NULL
	          RETURNING `+taskColumns,
		strings.Join(setClauses, ", "), argID, argID+1)

	return scanTask(s.pool.QueryRow(ctx, query, args...))
}

func (s *PgStore) SetCompleted(ctx context.Context, userID, taskID int, completedAt *time.Time) error {
	query := `UPDATE tasks
	          SET completed_at = $1
	          WHERE user_id = $2 AND id = $3 AND deleted_at IS NULL`
	tag, err := s.pool.Exec(ctx, query, completedAt, userID, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *PgStore) SoftDelete(ctx context.Context, userID, taskID int) error {
	query := `UPDATE tasks
	          SET deleted_at = now()
	          WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`
	tag, err := s.pool.Exec(ctx, query, userID, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}
