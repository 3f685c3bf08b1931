package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/todo-app/internal/repository"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/handler"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, todoHandler *handler.TodoHandler, userRepo repository.UserRepository, sessionKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Public pages
	r.GET("/", authHandler.Home)
	r.GET("/login", authHandler.LoginForm)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/register", authHandler.RegisterForm)
	r.POST("/register", authHandler.Register)
	r.GET("/forgot-password", authHandler.ForgotPasswordForm)
	r.POST("/forgot-password", authHandler.ForgotPassword)
	r.GET("/reset-password", authHandler.ResetPasswordForm)
	r.POST("/reset-password", authHandler.ResetPassword)

	// Protected todo routes
	todos := r.Group("/todos", middleware.Session(sessionKey), middleware.CurrentUser(userRepo, logger))
	todos.GET("", todoHandler.List)
	todos.POST("", todoHandler.Create)
	todos.POST("/:id/toggle", todoHandler.Toggle)
	todos.POST("/:id/delete", todoHandler.Delete)
	todos.GET("/:id/edit", todoHandler.EditForm)
	todos.POST("/:id/edit", todoHandler.Edit)

	return r
}
