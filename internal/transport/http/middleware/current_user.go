package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/gin-gonic/gin"
)

type userFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// CurrentUser runs after Session and loads the user record into "user".
// The session already vouched for the ID, so a missing user means the
// session key and the store disagree; that is logged and answered with 500.
// A session issued before the user's last password change is cleared and
// sent back to the login page.
func CurrentUser(users userFinder, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := users.FindByID(ctx, c.GetString("userID"))
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				logger.ErrorContext(ctx, "session user missing from store", "error", err)
			} else {
				logger.ErrorContext(ctx, "load session user", "error", err)
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if c.GetString("sessionVersion") != user.SessionVersion() {
			logger.InfoContext(ctx, "stale session rejected")
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookie,
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set("user", user)
		c.Next()
	}
}
