package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ErlanBelekov/todo-app/internal/domain"
	"github.com/ErlanBelekov/todo-app/internal/infrastructure/memory"
	"github.com/ErlanBelekov/todo-app/internal/usecase"
)

type todoFixture struct {
	uc       *usecase.TodoUsecase
	u1, u2   string
	u1TaskID string
}

// newTodoFixture registers two users; u1 owns one task.
func newTodoFixture(t *testing.T) *todoFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	u1, err := store.Users().Create(ctx, &domain.User{Username: "u1", Email: "u1@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	u2, err := store.Users().Create(ctx, &domain.User{Username: "u2", Email: "u2@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewTodoUsecase(store.Tasks())
	task, err := uc.Create(ctx, usecase.CreateTaskInput{UserID: u1.ID, Title: "Buy milk", Description: "2 liters"})
	if err != nil {
		t.Fatal(err)
	}
	return &todoFixture{uc: uc, u1: u1.ID, u2: u2.ID, u1TaskID: task.ID}
}

func TestTodoCreate_NewTaskIsIncompleteAndOwned(t *testing.T) {
	f := newTodoFixture(t)

	tasks, err := f.uc.List(context.Background(), f.u1)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len = %d, want 1", len(tasks))
	}
	if tasks[0].Completed {
		t.Error("new task is completed")
	}
	if tasks[0].UserID != f.u1 {
		t.Errorf("owner = %s, want %s", tasks[0].UserID, f.u1)
	}
}

func TestTodoCreate_EmptyTitle_ValidationErrorAndListUnchanged(t *testing.T) {
	f := newTodoFixture(t)

	_, err := f.uc.Create(context.Background(), usecase.CreateTaskInput{UserID: f.u1, Title: "   "})
	if !errors.Is(err, domain.ErrValidation) || !errors.Is(err, domain.ErrTitleRequired) {
		t.Errorf("want ErrTitleRequired, got %v", err)
	}

	tasks, _ := f.uc.List(context.Background(), f.u1)
	if len(tasks) != 1 {
		t.Errorf("len = %d, want 1", len(tasks))
	}
}

func TestTodo_OtherUser_AllMutationsUnauthorized(t *testing.T) {
	f := newTodoFixture(t)
	ctx := context.Background()

	if _, err := f.uc.Toggle(ctx, f.u1TaskID, f.u2); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("toggle: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.uc.Update(ctx, usecase.UpdateTaskInput{TaskID: f.u1TaskID, UserID: f.u2, Title: "hijacked"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("update: want ErrUnauthorized, got %v", err)
	}
	if err := f.uc.Delete(ctx, f.u1TaskID, f.u2); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("delete: want ErrUnauthorized, got %v", err)
	}
	if _, err := f.uc.Get(ctx, f.u1TaskID, f.u2); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("get: want ErrUnauthorized, got %v", err)
	}
	if ok, err := f.uc.BelongsTo(ctx, f.u1TaskID, f.u2); err != nil || ok {
		t.Errorf("BelongsTo(u2) = %v, %v; want false, nil", ok, err)
	}

	task, err := f.uc.Get(ctx, f.u1TaskID, f.u1)
	if err != nil {
		t.Fatal(err)
	}
	if task.Title != "Buy milk" || task.Completed {
		t.Errorf("task changed by unauthorized calls: %+v", task)
	}
}

func TestTodoToggle_FlipsCompletion(t *testing.T) {
	f := newTodoFixture(t)
	ctx := context.Background()

	task, err := f.uc.Toggle(ctx, f.u1TaskID, f.u1)
	if err != nil || !task.Completed {
		t.Fatalf("first toggle = %+v, %v", task, err)
	}
	task, err = f.uc.Toggle(ctx, f.u1TaskID, f.u1)
	if err != nil || task.Completed {
		t.Fatalf("second toggle = %+v, %v", task, err)
	}
}

func TestTodoUpdate_KeepsCompletionFlag(t *testing.T) {
	f := newTodoFixture(t)
	ctx := context.Background()

	if _, err := f.uc.Toggle(ctx, f.u1TaskID, f.u1); err != nil {
		t.Fatal(err)
	}
	task, err := f.uc.Update(ctx, usecase.UpdateTaskInput{
		TaskID: f.u1TaskID, UserID: f.u1, Title: "Buy oat milk", Description: "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.Title != "Buy oat milk" || task.Description != "" || !task.Completed {
		t.Errorf("updated task = %+v", task)
	}
}

func TestTodoUpdate_EmptyTitle_ReturnsErrTitleRequired(t *testing.T) {
	f := newTodoFixture(t)

	_, err := f.uc.Update(context.Background(), usecase.UpdateTaskInput{TaskID: f.u1TaskID, UserID: f.u1, Title: ""})
	if !errors.Is(err, domain.ErrTitleRequired) {
		t.Errorf("want ErrTitleRequired, got %v", err)
	}
}

func TestTodoDelete_Owner_RemovesTask(t *testing.T) {
	f := newTodoFixture(t)
	ctx := context.Background()

	if err := f.uc.Delete(ctx, f.u1TaskID, f.u1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Get(ctx, f.u1TaskID, f.u1); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("want ErrTaskNotFound after delete, got %v", err)
	}
	if ok, err := f.uc.BelongsTo(ctx, f.u1TaskID, f.u1); err != nil || ok {
		t.Errorf("BelongsTo after delete = %v, %v; want false, nil", ok, err)
	}
}

func TestTodo_MissingOrMalformedID_ReturnsErrTaskNotFound(t *testing.T) {
	f := newTodoFixture(t)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", "7f1c1b9e-3f0a-4a43-9a51-5d1f0e2b8c11"} {
		if _, err := f.uc.Toggle(ctx, id, f.u1); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("toggle %q: want ErrTaskNotFound, got %v", id, err)
		}
		if err := f.uc.Delete(ctx, id, f.u1); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Errorf("delete %q: want ErrTaskNotFound, got %v", id, err)
		}
	}
}

func TestTodoList_OnlyCallersTasksInInsertionOrder(t *testing.T) {
	f := newTodoFixture(t)
	ctx := context.Background()

	for _, title := range []string{"second", "third"} {
		if _, err := f.uc.Create(ctx, usecase.CreateTaskInput{UserID: f.u1, Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.uc.Create(ctx, usecase.CreateTaskInput{UserID: f.u2, Title: "not yours"}); err != nil {
		t.Fatal(err)
	}

	tasks, err := f.uc.List(ctx, f.u1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Buy milk", "second", "third"}
	if len(tasks) != len(want) {
		t.Fatalf("len = %d, want %d", len(tasks), len(want))
	}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Title, title)
		}
	}
}
