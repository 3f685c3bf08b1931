package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUnauthorized = errors.New("unauthorized access")

	ErrValidation       = errors.New("validation failed")
	ErrTitleRequired    = fmt.Errorf("%w: title is required", ErrValidation)
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)
)

type Task struct {
	ID          string
	UserID      string // owner, never changes after creation
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy compares the owner's stable ID, never username or email.
func (t *Task) OwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}
