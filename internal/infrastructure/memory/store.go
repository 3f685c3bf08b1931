// Package memory is an in-process implementation of the user and task
// repositories. It backs STORAGE=memory and the end-to-end tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/google/uuid"
)

// Store holds users and tasks behind one mutex, so every read-check-write
// sequence is atomic the same way a row lock makes it atomic in Postgres.
type Store struct {
	mu    sync.Mutex
	users map[string]*domain.User
	tasks map[string]*domain.Task
	order []string // task ids in insertion order
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*domain.User),
		tasks: make(map[string]*domain.Task),
		now:   time.Now,
	}
}

// Ping satisfies health.Pinger.
func (s *Store) Ping(context.Context) error { return nil }

// Users and Tasks expose the store through the repository interfaces.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, domain.ErrDuplicateUser
		}
	}

	now := r.s.now()
	created := &domain.User{
		ID:           uuid.NewString(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[created.ID] = created
	return cloneUser(created), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	u.UpdatedAt = r.s.now()
	return nil
}

func (r *UserRepository) FindByResetToken(_ context.Context, tokenHash string) (*domain.User, error) {
	return r.findOne(func(u *domain.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash
	})
}

func (r *UserRepository) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.ResetTokenHash == nil || *u.ResetTokenHash != tokenHash {
			continue
		}
		if !u.ResetTokenValid(now) {
			return nil, domain.ErrTokenInvalid
		}
		u.PasswordHash = passwordHash
		u.ResetTokenHash = nil
		u.ResetTokenExpiresAt = nil
		u.UpdatedAt = r.s.now()
		return cloneUser(u), nil
	}
	return nil, domain.ErrTokenInvalid
}

func (r *UserRepository) findOne(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type TaskRepository struct{ s *Store }

func (r *TaskRepository) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[t.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}

	now := r.s.now()
	created := &domain.Task{
		ID:          uuid.NewString(),
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.tasks[created.ID] = created
	r.s.order = append(r.s.order, created.ID)
	return cloneTask(created), nil
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) ListByUser(_ context.Context, userID string) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tasks := []*domain.Task{}
	for _, id := range r.s.order {
		if t := r.s.tasks[id]; t.UserID == userID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return tasks, nil
}

func (r *TaskRepository) Update(_ context.Context, id string, mutate func(*domain.Task) error) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	working := cloneTask(stored)
	if err := mutate(working); err != nil {
		return nil, err
	}

	stored.Title = working.Title
	stored.Description = working.Description
	stored.Completed = working.Completed
	stored.UpdatedAt = r.s.now()
	return cloneTask(stored), nil
}

func (r *TaskRepository) Delete(_ context.Context, id string, check func(*domain.Task) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if err := check(cloneTask(stored)); err != nil {
		return err
	}

	delete(r.s.tasks, id)
	for i, tid := range r.s.order {
		if tid == id {
			r.s.order = append(r.s.order[:i], r.s.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if u.ResetTokenExpiresAt != nil {
		e := *u.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &e
	}
	return &c
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	return &c
}
