package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/email"
	"github.com/ErlanBelekov/todo-app/internal/metrics"
	"github.com/ErlanBelekov/todo-app/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultResetTokenTTL = 24 * time.Hour
	defaultSessionTTL    = 24 * time.Hour

	resetSubject = "Password Reset Request"
)

type AuthUsecase struct {
	users         repository.UserRepository
	email         email.Sender
	sessionKey    []byte
	appURL        string
	resetTokenTTL time.Duration
	sessionTTL    time.Duration
	bcryptCost    int
	now           func() time.Time
}

type AuthOption func(*AuthUsecase)

// WithClock replaces time.Now, for tests that need to step past expiry.
func WithClock(now func() time.Time) AuthOption {
	return func(u *AuthUsecase) { u.now = now }
}

func WithBcryptCost(cost int) AuthOption {
	return func(u *AuthUsecase) { u.bcryptCost = cost }
}

func WithResetTokenTTL(ttl time.Duration) AuthOption {
	return func(u *AuthUsecase) { u.resetTokenTTL = ttl }
}

func WithSessionTTL(ttl time.Duration) AuthOption {
	return func(u *AuthUsecase) { u.sessionTTL = ttl }
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, sessionKey []byte, appURL string, opts ...AuthOption) *AuthUsecase {
	u := &AuthUsecase{
		users:         users,
		email:         emailSender,
		sessionKey:    sessionKey,
		appURL:        appURL,
		resetTokenTTL: defaultResetTokenTTL,
		sessionTTL:    defaultSessionTTL,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register stores a new user with a bcrypt-hashed password. Username and
// email are checked up front; the store's unique constraints catch races.
func (u *AuthUsecase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := u.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, domain.ErrDuplicateUser
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find by username: %w", err)
	}
	if _, err := u.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, domain.ErrDuplicateUser
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find by email: %w", err)
	}

	hash, err := u.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.users.Create(ctx, &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	return user, nil
}

// Login checks the password and returns a signed session JWT. Unknown
// usernames and wrong passwords both yield domain.ErrInvalidCredentials.
func (u *AuthUsecase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := u.users.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find by username: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidCredentials
	}

	now := u.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"ver":      user.SessionVersion(),
		"iat":      now.Unix(),
		"exp":      now.Add(u.sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.sessionKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return signed, nil
}

// RequestPasswordReset issues a reset token for the user with emailAddr and
// emails the link. An unknown email returns domain.ErrUserNotFound with
// nothing stored or sent. If the email fails the token stays stored and the
// error wraps domain.ErrNotificationFailed.
func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("find by email: %w", err)
	}

	raw := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)

	expiresAt := u.now().Add(u.resetTokenTTL)
	if err = u.users.SetResetToken(ctx, user.ID, hashToken(rawToken), expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	metrics.ResetTokensIssuedTotal.Inc()

	link := u.appURL + "/reset-password?token=" + rawToken
	body := fmt.Sprintf(
		"To reset your password, click the link below:\n\n%s\n\nThis link will expire in %s.\n\nIf you did not request this, please ignore this email.",
		link, humanizeTTL(u.resetTokenTTL),
	)
	if err = u.email.Send(ctx, user.Email, resetSubject, body); err != nil {
		metrics.ResetEmailFailuresTotal.Inc()
		return fmt.Errorf("%w: %w", domain.ErrNotificationFailed, err)
	}
	return nil
}

// ValidateResetToken returns domain.ErrTokenInvalid for unknown and expired
// tokens alike.
func (u *AuthUsecase) ValidateResetToken(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return domain.ErrTokenInvalid
	}
	user, err := u.users.FindByResetToken(ctx, hashToken(rawToken))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("find by reset token: %w", err)
	}
	if !user.ResetTokenValid(u.now()) {
		return domain.ErrTokenInvalid
	}
	return nil
}

// ConsumeResetToken sets a new password and clears the token in one atomic
// store call, so a token authorizes at most one reset. The password is
// checked and the token looked up before any bcrypt work is spent.
func (u *AuthUsecase) ConsumeResetToken(ctx context.Context, rawToken, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	if err := u.ValidateResetToken(ctx, rawToken); err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			metrics.PasswordResetsTotal.WithLabelValues("invalid_token").Inc()
		}
		return err
	}

	hash, err := u.hashPassword(newPassword)
	if err != nil {
		return err
	}

	// The lookup above is advisory; the conditional update decides.
	if _, err = u.users.ConsumeResetToken(ctx, hashToken(rawToken), u.now(), hash); err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			metrics.PasswordResetsTotal.WithLabelValues("invalid_token").Inc()
			return domain.ErrTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	metrics.PasswordResetsTotal.WithLabelValues("success").Inc()
	return nil
}

type ResetPasswordInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// ResetPassword rejects a confirmation mismatch before touching the store.
func (u *AuthUsecase) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Password != input.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}
	return u.ConsumeResetToken(ctx, input.Token, input.Password)
}

// checkPassword enforces the bounds bcrypt can honour: a minimum in
// characters, a maximum in bytes.
func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < domain.MinPasswordChars {
		return domain.ErrPasswordTooShort
	}
	if len(password) > domain.MaxPasswordBytes {
		return domain.ErrPasswordTooLong
	}
	return nil
}

func (u *AuthUsecase) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func hashToken(rawToken string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))
}

func humanizeTTL(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
