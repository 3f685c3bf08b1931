package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/flash"
	"github.com/ErlanBelekov/todo-app/internal/usecase"
	"github.com/gin-gonic/gin"
)

type todoUsecaser interface {
	List(ctx context.Context, userID string) ([]*domain.Task, error)
	Create(ctx context.Context, input usecase.CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, taskID, userID string) (*domain.Task, error)
	Toggle(ctx context.Context, taskID, userID string) (*domain.Task, error)
	Update(ctx context.Context, input usecase.UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, taskID, userID string) error
	BelongsTo(ctx context.Context, taskID, userID string) (bool, error)
}

type TodoHandler struct {
	todoUsecase todoUsecaser
	pages       *Renderer
	logger      *slog.Logger
}

func NewTodoHandler(todoUsecase todoUsecaser, pages *Renderer, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		todoUsecase: todoUsecase,
		pages:       pages,
		logger:      logger.With("component", "todo_handler"),
	}
}

type taskForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
}

// GET /todos
func (h *TodoHandler) List(c *gin.Context) {
	tasks, err := h.todoUsecase.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list todos", "error", err)
		h.pages.HTML(c, http.StatusInternalServerError, "todos", page{Title: "My todos", Error: errInternalServer})
		return
	}
	h.pages.HTML(c, http.StatusOK, "todos", page{Title: "My todos", Tasks: tasks})
}

// POST /todos
func (h *TodoHandler) Create(c *gin.Context) {
	var form taskForm
	if !h.bindTaskForm(c, &form) {
		return
	}

	_, err := h.todoUsecase.Create(c.Request.Context(), usecase.CreateTaskInput{
		UserID:      c.GetString("userID"),
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		h.flashError(c, "create todo", err)
	} else {
		flash.Success(c, msgTodoCreated)
	}
	c.Redirect(http.StatusSeeOther, "/todos")
}

// POST /todos/:id/toggle
func (h *TodoHandler) Toggle(c *gin.Context) {
	if _, err := h.todoUsecase.Toggle(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		h.flashError(c, "toggle todo", err)
	} else {
		flash.Success(c, msgTodoUpdated)
	}
	c.Redirect(http.StatusSeeOther, "/todos")
}

// POST /todos/:id/delete
// A task the caller does not own, or that does not exist, reads as
// unauthorized. Delete re-checks ownership under the row lock.
func (h *TodoHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	taskID, userID := c.Param("id"), c.GetString("userID")

	owned, err := h.todoUsecase.BelongsTo(ctx, taskID, userID)
	switch {
	case err != nil:
		h.flashError(c, "check todo owner", err)
	case !owned:
		flash.Error(c, errUnauthorized)
	default:
		if err = h.todoUsecase.Delete(ctx, taskID, userID); err != nil {
			h.flashError(c, "delete todo", err)
		} else {
			flash.Success(c, msgTodoDeleted)
		}
	}
	c.Redirect(http.StatusSeeOther, "/todos")
}

// GET /todos/:id/edit
func (h *TodoHandler) EditForm(c *gin.Context) {
	task, err := h.todoUsecase.Get(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		h.flashError(c, "load todo", err)
		c.Redirect(http.StatusFound, "/todos")
		return
	}
	h.pages.HTML(c, http.StatusOK, "edit-todo", page{Title: "Edit todo", Task: task})
}

// POST /todos/:id/edit
// A blank title re-renders the form; everything else redirects to the list.
func (h *TodoHandler) Edit(c *gin.Context) {
	var form taskForm
	if !h.bindTaskForm(c, &form) {
		return
	}

	taskID := c.Param("id")
	_, err := h.todoUsecase.Update(c.Request.Context(), usecase.UpdateTaskInput{
		TaskID:      taskID,
		UserID:      c.GetString("userID"),
		Title:       form.Title,
		Description: form.Description,
	})
	if errors.Is(err, domain.ErrTitleRequired) {
		h.pages.HTML(c, http.StatusBadRequest, "edit-todo", page{
			Title:       "Edit todo",
			Task:        &domain.Task{ID: taskID, Title: form.Title, Description: form.Description},
			FieldErrors: map[string]string{"title": errTitleRequired},
		})
		return
	}
	if err != nil {
		h.flashError(c, "update todo", err)
	} else {
		flash.Success(c, msgTodoUpdated)
	}
	c.Redirect(http.StatusSeeOther, "/todos")
}

// flashError turns an expected domain error into its message and logs
// anything else.
func (h *TodoHandler) flashError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		flash.Error(c, errTitleRequired)
	case errors.Is(err, domain.ErrTaskNotFound):
		flash.Error(c, errTodoNotFound)
	case errors.Is(err, domain.ErrUnauthorized):
		flash.Error(c, errUnauthorized)
	default:
		h.logger.ErrorContext(c.Request.Context(), op, "error", err)
		flash.Error(c, errInternalServer)
	}
}

// bindTaskForm reports whether the body parsed. On failure it flashes and
// redirects to the list.
func (h *TodoHandler) bindTaskForm(c *gin.Context, form *taskForm) bool {
	if err := c.ShouldBind(form); err != nil {
		h.logger.WarnContext(c.Request.Context(), "bind task form", "error", err)
		flash.Error(c, errInvalidForm)
		c.Redirect(http.StatusSeeOther, "/todos")
		return false
	}
	return true
}
