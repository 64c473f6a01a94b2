// Package api talks to the REST task backend.
package api

import (
	"context"

	"github.com/nibzard/tasksync/internal/todo"
)

// Service defines the task backend operations.
// The terminal UI and the subcommands only go through this interface.
type Service interface {
	// List returns the tasks matching filter in backend order.
	List(ctx context.Context, filter todo.Filter) ([]todo.Task, error)

	// Get returns one task. A missing task yields ErrNotFound.
	Get(ctx context.Context, id todo.ID) (todo.Task, error)

	// Create creates a task from draft. The title must not be blank.
	// The returned task is zero when the backend does not echo it.
	Create(ctx context.Context, draft todo.Draft) (todo.Task, error)

	// Update applies a partial update. Absent patch fields are not sent.
	// When the backend does not echo the task only its ID is set.
	Update(ctx context.Context, id todo.ID, patch todo.Patch) (todo.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, id todo.ID) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
