package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/flash"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/middleware"
	"github.com/ErlanBelekov/todo-app/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, rawToken string) error
	ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error
}

type AuthHandler struct {
	authUsecase  authUsecaser
	pages        *Renderer
	logger       *slog.Logger
	sessionTTL   time.Duration
	secureCookie bool
}

// NewAuthHandler builds the handler. secureCookie marks the session cookie
// Secure, which only works over HTTPS.
func NewAuthHandler(authUsecase authUsecaser, pages *Renderer, logger *slog.Logger, sessionTTL time.Duration, secureCookie bool) *AuthHandler {
	registerValidators()
	return &AuthHandler{
		authUsecase:  authUsecase,
		pages:        pages,
		logger:       logger.With("component", "auth_handler"),
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
	}
}

// GET /
func (h *AuthHandler) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/todos")
}

// GET /login[?error][?logout]
func (h *AuthHandler) LoginForm(c *gin.Context) {
	data := page{Title: "Login"}
	if _, ok := c.GetQuery("error"); ok {
		data.Error = errInvalidLogin
	}
	if _, ok := c.GetQuery("logout"); ok {
		data.Message = msgLoggedOut
	}
	h.pages.HTML(c, http.StatusOK, "login", data)
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.Redirect(http.StatusSeeOther, "/login?error")
		return
	}

	token, err := h.authUsecase.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		}
		c.Redirect(http.StatusSeeOther, "/login?error")
		return
	}

	h.setSessionCookie(c, token, int(h.sessionTTL.Seconds()))
	c.Redirect(http.StatusSeeOther, "/todos")
}

// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/login?logout")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

type registerForm struct {
	Username string `form:"username" binding:"required,min=3,max=50"`
	Email    string `form:"email" binding:"required,email,max=254"`
	Password string `form:"password" binding:"required,min=6,maxbytes=72"`
}

// GET /register
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	h.pages.HTML(c, http.StatusOK, "register", page{Title: "Register"})
}

// POST /register
// Re-renders the form with field errors on failure.
func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		h.pages.HTML(c, http.StatusBadRequest, "register", page{
			Title:       "Register",
			Form:        registerForm{Username: form.Username, Email: form.Email},
			FieldErrors: fieldErrors(err),
		})
		return
	}

	_, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Username: strings.TrimSpace(form.Username),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})
	if err != nil {
		data := page{
			Title: "Register",
			Form:  registerForm{Username: form.Username, Email: form.Email},
		}
		if errors.Is(err, domain.ErrDuplicateUser) {
			data.FieldErrors = map[string]string{"username": "Username or email already exists"}
			h.pages.HTML(c, http.StatusConflict, "register", data)
			return
		}
		if errors.Is(err, domain.ErrValidation) {
			data.FieldErrors = map[string]string{"password": passwordMessage(err)}
			h.pages.HTML(c, http.StatusBadRequest, "register", data)
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "register", "error", err)
		data.Error = errInternalServer
		h.pages.HTML(c, http.StatusInternalServerError, "register", data)
		return
	}

	flash.Success(c, msgRegistered)
	c.Redirect(http.StatusSeeOther, "/login")
}

// GET /forgot-password
func (h *AuthHandler) ForgotPasswordForm(c *gin.Context) {
	h.pages.HTML(c, http.StatusOK, "forgot-password", page{Title: "Forgot password"})
}

type forgotPasswordForm struct {
	Email string `form:"email" binding:"required,email"`
}

// POST /forgot-password
// Unlike reset, this tells the caller whether the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var form forgotPasswordForm
	if err := c.ShouldBind(&form); err != nil {
		flash.Error(c, errInvalidEmail)
		c.Redirect(http.StatusSeeOther, "/forgot-password")
		return
	}

	err := h.authUsecase.RequestPasswordReset(c.Request.Context(), strings.TrimSpace(form.Email))
	switch {
	case err == nil:
		flash.Success(c, msgResetLinkSent)
	case errors.Is(err, domain.ErrUserNotFound):
		flash.Error(c, errEmailNotFound)
	case errors.Is(err, domain.ErrNotificationFailed):
		h.logger.ErrorContext(c.Request.Context(), "send reset email", "error", err)
		flash.Error(c, errEmailSendFailed)
	default:
		h.logger.ErrorContext(c.Request.Context(), "request password reset", "error", err)
		flash.Error(c, errInternalServer)
	}
	c.Redirect(http.StatusSeeOther, "/forgot-password")
}

// GET /reset-password?token=<raw>
func (h *AuthHandler) ResetPasswordForm(c *gin.Context) {
	token := c.Query("token")
	err := h.authUsecase.ValidateResetToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domain.ErrTokenInvalid) {
			h.logger.ErrorContext(c.Request.Context(), "validate reset token", "error", err)
			h.pages.HTML(c, http.StatusInternalServerError, "reset-password", page{Title: "Reset password", Error: errInternalServer})
			return
		}
		h.pages.HTML(c, http.StatusOK, "reset-password", page{Title: "Reset password", Error: errTokenInvalid})
		return
	}
	h.pages.HTML(c, http.StatusOK, "reset-password", page{Title: "Reset password", Token: token})
}

type resetPasswordForm struct {
	Token           string `form:"token"`
	Password        string `form:"password" binding:"required,min=6,maxbytes=72"`
	ConfirmPassword string `form:"confirmPassword"`
}

// POST /reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var form resetPasswordForm
	back := func() string { return "/reset-password?token=" + url.QueryEscape(form.Token) }

	if err := c.ShouldBind(&form); err != nil {
		msg, ok := fieldErrors(err)["password"]
		if !ok {
			msg = errInvalidForm
		}
		flash.Error(c, msg)
		c.Redirect(http.StatusSeeOther, back())
		return
	}

	err := h.authUsecase.ResetPassword(c.Request.Context(), usecase.ResetPasswordInput{
		Token:           form.Token,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	switch {
	case err == nil:
		flash.Success(c, msgPasswordReset)
		c.Redirect(http.StatusSeeOther, "/login")
		return
	case errors.Is(err, domain.ErrPasswordMismatch):
		flash.Error(c, errPasswordsMismatch)
	case errors.Is(err, domain.ErrTokenInvalid):
		flash.Error(c, errTokenInvalid)
	case errors.Is(err, domain.ErrValidation):
		flash.Error(c, passwordMessage(err))
	default:
		h.logger.ErrorContext(c.Request.Context(), "reset password", "error", err)
		flash.Error(c, errInternalServer)
	}
	c.Redirect(http.StatusSeeOther, back())
}
