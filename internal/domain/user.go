package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Password bounds. The upper bound is in bytes because bcrypt rejects
// input longer than 72 bytes.
const (
	MinPasswordChars = 6
	MaxPasswordBytes = 72
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrNotificationFailed = errors.New("notification failed")

	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordChars)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	// Both set or both nil. Only the SHA-256 of the emailed token is stored.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetTokenValid reports whether the user holds a reset token that has not
// expired at now. Expiry is checked lazily here; nothing sweeps old tokens.
func (u *User) ResetTokenValid(now time.Time) bool {
	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	return now.Before(*u.ResetTokenExpiresAt)
}

// SessionVersion fingerprints the password hash. Sessions carry it and are
// rejected once the password changes.
func (u *User) SessionVersion() string {
	sum := sha256.Sum256([]byte(u.PasswordHash))
	return hex.EncodeToString(sum[:8])
}
