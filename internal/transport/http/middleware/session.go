package middleware

import (
	"errors"
	"net/http"

	ctxlog "github.com/ErlanBelekov/todo-app/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie holds the HS256 session JWT issued at login.
const SessionCookie = "session"

// Session validates the session cookie and sets "userID" and "sessionVersion"
// in the gin context. Requests without a valid session are redirected to the
// login page.
func Session(jwtKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, err := c.Cookie(SessionCookie)
		if err != nil || rawToken == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		// Checked against the stored user by CurrentUser.
		version, _ := claims["ver"].(string)

		c.Set("userID", userID)
		c.Set("sessionVersion", version)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
