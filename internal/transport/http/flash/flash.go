// Package flash carries a one-shot status message across a redirect in a
// short-lived cookie. The next page that renders pops it.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	cookieName = "flash"
	maxAge     = 60 // seconds
)

const (
	KindSuccess = "success"
	KindError   = "error"
)

type Message struct {
	Kind string `json:"k"`
	Text string `json:"t"`
}

func Success(c *gin.Context, text string) { Set(c, Message{Kind: KindSuccess, Text: text}) }
func Error(c *gin.Context, text string)   { Set(c, Message{Kind: KindError, Text: text}) }

// Set replaces any pending message.
func Set(c *gin.Context, msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending message and clears the cookie. It returns nil when
// there is no message or the cookie cannot be decoded.
func Pop(c *gin.Context) *Message {
	raw, err := c.Cookie(cookieName)
	if err != nil || raw == "" {
		return nil
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msg Message
	if err := json.Unmarshal(b, &msg); err != nil || msg.Text == "" {
		return nil
	}
	return &msg
}
