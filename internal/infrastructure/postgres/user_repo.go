package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash,
	       reset_token_hash, reset_token_expires_at, created_at, updated_at`

const (
	insertUserSQL = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	selectUserByIDSQL         = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByUsernameSQL   = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	selectUserByEmailSQL      = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	selectUserByResetTokenSQL = `SELECT ` + userColumns + ` FROM users WHERE reset_token_hash = $1`

	setResetTokenSQL = `
		UPDATE users
		SET    reset_token_hash       = $2,
		       reset_token_expires_at = $3,
		       updated_at             = NOW()
		WHERE  id = $1`

	// One statement: the token is checked and cleared atomically, so two
	// concurrent resets with the same token cannot both succeed.
	consumeResetTokenSQL = `
		UPDATE users
		SET    password_hash          = $3,
		       reset_token_hash       = NULL,
		       reset_token_expires_at = NULL,
		       updated_at             = NOW()
		WHERE  reset_token_hash       = $1
		  AND  reset_token_expires_at > $2
		RETURNING ` + userColumns
)

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	row := r.db.QueryRow(ctx, insertUserSQL, u.Username, u.Email, u.PasswordHash)

	created, err := scanUser(row)
	if err != nil {
		if isPgCode(err, codeUniqueViolation) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, selectUserByIDSQL, id))
	if isPgCode(err, codeInvalidTextRepresentation) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUserByUsernameSQL, username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUserByEmailSQL, email))
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx, setResetTokenSQL, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUserByResetTokenSQL, tokenHash))
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, consumeResetTokenSQL, tokenHash, now, passwordHash))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ResetTokenHash, &u.ResetTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
