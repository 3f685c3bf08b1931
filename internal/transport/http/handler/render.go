package handler

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/flash"
	"github.com/gin-gonic/gin"
)

// page is the data every template receives. Fields a page does not use stay
// at their zero value.
type page struct {
	Title   string
	User    *domain.User
	Flash   *flash.Message
	Error   string
	Message string

	Form        registerForm
	FieldErrors map[string]string

	Tasks []*domain.Task
	Task  *domain.Task
	Token string
}

// Renderer executes the parsed page templates. It pops the pending flash
// message and fills in the signed-in user before rendering.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

func NewRenderer(pages map[string]*template.Template, logger *slog.Logger) *Renderer {
	return &Renderer{
		pages:  pages,
		logger: logger.With("component", "renderer"),
	}
}

func (r *Renderer) HTML(c *gin.Context, status int, name string, data page) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.logger.ErrorContext(c.Request.Context(), "unknown page", "page", name)
		c.String(http.StatusInternalServerError, errInternalServer)
		return
	}

	data.Flash = flash.Pop(c)
	if data.User == nil {
		if u, ok := c.Get("user"); ok {
			data.User, _ = u.(*domain.User)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name+".html", data); err != nil {
		r.logger.ErrorContext(c.Request.Context(), "render page", "page", name, "error", err)
		c.String(http.StatusInternalServerError, errInternalServer)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
