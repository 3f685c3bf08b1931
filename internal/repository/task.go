package repository

import (
	"context"

	"github.com/ErlanBelekov/todo-app/internal/domain"
)

// TaskRepository is the task store. Usecases depend on this interface so the
// backing store can be Postgres in production and memory in tests.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// ListByUser returns the user's tasks in insertion order.
	ListByUser(ctx context.Context, userID string) ([]*domain.Task, error)

	// Update loads the task under a row lock, hands it to mutate and persists
	// the result, all in one transaction. If mutate returns an error nothing
	// is written and that error is returned unchanged. The owner is never
	// written back.
	Update(ctx context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error)

	// Delete removes the task if check (run under the same lock) returns nil.
	Delete(ctx context.Context, id string, check func(*domain.Task) error) error
}
