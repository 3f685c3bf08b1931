package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/todo-app/config"
	"github.com/ErlanBelekov/todo-app/internal/email"
	"github.com/ErlanBelekov/todo-app/internal/health"
	"github.com/ErlanBelekov/todo-app/internal/infrastructure/memory"
	"github.com/ErlanBelekov/todo-app/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/todo-app/internal/log"
	"github.com/ErlanBelekov/todo-app/internal/metrics"
	"github.com/ErlanBelekov/todo-app/internal/repository"
	httptransport "github.com/ErlanBelekov/todo-app/internal/transport/http"
	"github.com/ErlanBelekov/todo-app/internal/transport/http/handler"
	"github.com/ErlanBelekov/todo-app/internal/usecase"
	"github.com/ErlanBelekov/todo-app/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var (
		userRepo repository.UserRepository
		taskRepo repository.TaskRepository
		pinger   health.Pinger
	)
	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		userRepo, taskRepo, pinger = store.Users(), store.Tasks(), store
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		if err = postgres.EnsureSchema(ctx, pool); err != nil {
			stop()
			log.Fatalf("schema: %v", err)
		}
		userRepo, taskRepo, pinger = postgres.NewUserRepository(pool), postgres.NewTaskRepository(pool), pool
	}

	pages, err := web.Templates()
	if err != nil {
		stop()
		log.Fatalf("templates: %v", err)
	}
	renderer := handler.NewRenderer(pages, logger)
	sessionKey := []byte(cfg.SessionSecret)

	// Auth
	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, emailSender, sessionKey, cfg.AppURL,
		usecase.WithResetTokenTTL(cfg.ResetTokenTTL),
		usecase.WithSessionTTL(cfg.SessionTTL),
	)
	authHandler := handler.NewAuthHandler(authUsecase, renderer, logger, cfg.SessionTTL, cfg.Env != "local")

	// Todos
	todoUsecase := usecase.NewTodoUsecase(taskRepo)
	todoHandler := handler.NewTodoHandler(todoUsecase, renderer, logger)

	metrics.Register()
	checker := health.NewChecker(pinger, cfg.Storage, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, authHandler, todoHandler, userRepo, sessionKey),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
