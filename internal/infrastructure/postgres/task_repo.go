package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TaskRepository struct {
	db DB
}

func NewTaskRepository(db DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

const (
	insertTaskSQL = `
		INSERT INTO tasks (user_id, title, description)
		VALUES ($1, $2, $3)
		RETURNING ` + taskColumns

	selectTaskByIDSQL = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	selectTaskForUpdateSQL = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`

	listTasksByUserSQL = `
		SELECT ` + taskColumns + `
		FROM   tasks
		WHERE  user_id = $1
		ORDER BY created_at ASC, id ASC`

	// user_id is deliberately absent: ownership is immutable.
	updateTaskSQL = `
		UPDATE tasks
		SET    title       = $2,
		       description = $3,
		       completed   = $4,
		       updated_at  = NOW()
		WHERE  id = $1
		RETURNING ` + taskColumns

	deleteTaskSQL = `DELETE FROM tasks WHERE id = $1`
)

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	created, err := scanTask(r.db.QueryRow(ctx, insertTaskSQL, t.UserID, t.Title, t.Description))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, selectTaskByIDSQL, id))
	if isPgCode(err, codeInvalidTextRepresentation) {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx, listTasksByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, mutate func(*domain.Task) error) (_ *domain.Task, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	task, err := lockTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err = mutate(task); err != nil {
		return nil, err
	}

	updated, err := scanTask(tx.QueryRow(ctx, updateTaskSQL, task.ID, task.Title, task.Description, task.Completed))
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string, check func(*domain.Task) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	task, err := lockTask(ctx, tx, id)
	if err != nil {
		return err
	}

	if err = check(task); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, deleteTaskSQL, task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func lockTask(ctx context.Context, tx pgx.Tx, id string) (*domain.Task, error) {
	t, err := scanTask(tx.QueryRow(ctx, selectTaskForUpdateSQL, id))
	if isPgCode(err, codeInvalidTextRepresentation) {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}
