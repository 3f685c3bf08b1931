package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/todo-app/internal/domain"
)

type UserRepository interface {
	// Create returns domain.ErrDuplicateUser when username or email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// SetResetToken overwrites any token the user already holds.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// ConsumeResetToken atomically replaces the password hash and clears the
	// token, but only if tokenHash matches and has not expired at now.
	// Returns domain.ErrTokenInvalid otherwise.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error)
}
