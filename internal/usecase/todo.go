package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/metrics"
	"github.com/ErlanBelekov/todo-app/internal/repository"
	"github.com/google/uuid"
)

// TodoUsecase is the task ownership service. Every operation takes the
// caller's user ID explicitly and checks it against the task's owner before
// reading or mutating.
type TodoUsecase struct {
	tasks repository.TaskRepository
}

func NewTodoUsecase(tasks repository.TaskRepository) *TodoUsecase {
	return &TodoUsecase{tasks: tasks}
}

func (u *TodoUsecase) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	tasks, err := u.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

type CreateTaskInput struct {
	UserID      string
	Title       string
	Description string
}

func (u *TodoUsecase) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}

	task, err := u.tasks.Create(ctx, &domain.Task{
		UserID:      input.UserID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	metrics.TaskOperationsTotal.WithLabelValues("create").Inc()
	return task, nil
}

// Get returns the task only if userID owns it.
func (u *TodoUsecase) Get(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	if !validID(taskID) {
		return nil, domain.ErrTaskNotFound
	}
	task, err := u.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err = authorize(userID)(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *TodoUsecase) Toggle(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	if !validID(taskID) {
		return nil, domain.ErrTaskNotFound
	}
	check := authorize(userID)
	task, err := u.tasks.Update(ctx, taskID, func(t *domain.Task) error {
		if err := check(t); err != nil {
			return err
		}
		t.Completed = !t.Completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskOperationsTotal.WithLabelValues("toggle").Inc()
	return task, nil
}

type UpdateTaskInput struct {
	TaskID      string
	UserID      string
	Title       string
	Description string
}

// Update overwrites title and description. The completion flag is left as is.
func (u *TodoUsecase) Update(ctx context.Context, input UpdateTaskInput) (*domain.Task, error) {
	if !validID(input.TaskID) {
		return nil, domain.ErrTaskNotFound
	}
	title := strings.TrimSpace(input.Title)
	check := authorize(input.UserID)
	task, err := u.tasks.Update(ctx, input.TaskID, func(t *domain.Task) error {
		if err := check(t); err != nil {
			return err
		}
		if title == "" {
			return domain.ErrTitleRequired
		}
		t.Title = title
		t.Description = strings.TrimSpace(input.Description)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskOperationsTotal.WithLabelValues("update").Inc()
	return task, nil
}

func (u *TodoUsecase) Delete(ctx context.Context, taskID, userID string) error {
	if !validID(taskID) {
		return domain.ErrTaskNotFound
	}
	if err := u.tasks.Delete(ctx, taskID, authorize(userID)); err != nil {
		return err
	}

	metrics.TaskOperationsTotal.WithLabelValues("delete").Inc()
	return nil
}

// BelongsTo reports whether userID owns taskID. A missing task is false
// rather than an error.
func (u *TodoUsecase) BelongsTo(ctx context.Context, taskID, userID string) (bool, error) {
	if !validID(taskID) {
		return false, nil
	}
	task, err := u.tasks.GetByID(ctx, taskID)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get task: %w", err)
	}
	return task.OwnedBy(userID), nil
}

func authorize(userID string) func(*domain.Task) error {
	return func(t *domain.Task) error {
		if !t.OwnedBy(userID) {
			return domain.ErrUnauthorized
		}
		return nil
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
