// seed registers a demo user with a few tasks in the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/todo-app/config"
	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/email"
	"github.com/ErlanBelekov/todo-app/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/todo-app/internal/usecase"
)

const (
	seedUsername = "demo"
	seedEmail    = "demo@example.com"
	seedPassword = "demo-password"
)

var tasks = []usecase.CreateTaskInput{
	{Title: "Buy milk", Description: "2 liters, oat if they have it"},
	{Title: "Renew passport"},
	{Title: "Book dentist appointment", Description: "Any weekday morning"},
	{Title: "Water the plants"},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.Storage != "postgres" {
		log.Fatal("seed only makes sense with STORAGE=postgres")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err = postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	users := postgres.NewUserRepository(pool)
	auth := usecase.NewAuthUsecase(users, email.NewSender("local", "", "", logger), []byte(cfg.SessionSecret), cfg.AppURL)
	todos := usecase.NewTodoUsecase(postgres.NewTaskRepository(pool))

	user, err := auth.Register(ctx, usecase.RegisterInput{
		Username: seedUsername,
		Email:    seedEmail,
		Password: seedPassword,
	})
	if errors.Is(err, domain.ErrDuplicateUser) {
		fmt.Printf("User %q already exists, nothing to do.\n", seedUsername)
		return
	}
	if err != nil {
		log.Fatalf("register: %v", err)
	}

	for _, in := range tasks {
		in.UserID = user.ID
		if _, err = todos.Create(ctx, in); err != nil {
			log.Fatalf("create task %q: %v", in.Title, err)
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Username: %s\n", seedUsername)
	fmt.Printf("  Email:    %s\n", seedEmail)
	fmt.Printf("  Password: %s\n", seedPassword)
	fmt.Printf("  Tasks:    %d\n", len(tasks))
	fmt.Println()
	fmt.Printf("Log in at %s/login\n", cfg.AppURL)
}
