package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gcOssi/spark6/internal/api"
	"github.com/gcOssi/spark6/internal/config"
	"github.com/gcOssi/spark6/internal/database"
	"github.com/gcOssi/spark6/internal/models"
	"github.com/gcOssi/spark6/internal/services"
)

// newTestServer runs the real router behind an httptest server.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("database.New() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate() unexpected error: %v", err)
	}

	cfg := &config.Config{
		Env:           "test",
		JWTSecret:     "test-secret",
		TokenExpiry:   time.Hour,
		AllowedOrigin: "http://localhost:3000",
	}

	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	taskService := services.NewTaskService(db, eventService)

	srv := httptest.NewServer(api.NewRouter(cfg, userService, taskService, eventService, time.Now()))
	t.Cleanup(srv.Close)
	return srv
}

func sessionFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestRegisterAndTaskFlow(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "")
	ctx := context.Background()

	user, err := c.Register(ctx, "alice", "alice@example.com", "pw1")
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Register() user = %+v", user)
	}
	if c.Token() == "" {
		t.Fatal("Register() did not start a session")
	}

	task, err := c.CreateTask(ctx, "buy milk", "2%")
	if err != nil {
		t.Fatalf("CreateTask() unexpected error: %v", err)
	}
	if task.Completed {
		t.Error("CreateTask() task starts completed")
	}

	tasks, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("ListTasks() = %+v, want the created task", tasks)
	}

	completed := true
	updated, err := c.UpdateTask(ctx, task.ID, models.TaskUpdate{Completed: &completed})
	if err != nil {
		t.Fatalf("UpdateTask() unexpected error: %v", err)
	}
	if !updated.Completed || updated.Title != "buy milk" {
		t.Errorf("UpdateTask() = %+v", updated)
	}

	deleted, err := c.DeleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("DeleteTask() unexpected error: %v", err)
	}
	if deleted.ID != task.ID {
		t.Errorf("DeleteTask() returned %+v, want task %d", deleted, task.ID)
	}

	// The deleted task is gone.
	var apiErr *APIError
	if _, err := c.GetTask(ctx, task.ID); !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Errorf("GetTask() after delete error = %v, want 404 APIError", err)
	}
}

func TestLoginFailureClearsNothingButStaysAnonymous(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "")
	ctx := context.Background()

	if _, err := c.Register(ctx, "alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	c.Logout()

	_, err := c.Login(ctx, "alice", "wrongpw")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login() wrong password error = %v, want ErrUnauthorized", err)
	}
	if c.Token() != "" || c.User() != nil {
		t.Error("failed login left a session behind")
	}

	if _, err := c.Login(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if c.Token() == "" {
		t.Error("successful login did not start a session")
	}
}

func TestSessionPersistenceAndRestore(t *testing.T) {
	srv := newTestServer(t)
	path := sessionFile(t)
	ctx := context.Background()

	first := New(srv.URL, path)
	if _, err := first.Register(ctx, "alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	// A fresh client restores the session from disk and re-validates it.
	second := New(srv.URL, path)
	restored, err := second.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore() unexpected error: %v", err)
	}
	if !restored {
		t.Fatal("Restore() = false, want true")
	}
	if second.User() == nil || second.User().Username != "alice" {
		t.Errorf("Restore() user = %+v, want alice", second.User())
	}

	if _, err := second.ListTasks(ctx); err != nil {
		t.Fatalf("ListTasks() after restore unexpected error: %v", err)
	}
}

func TestRestoreNoSession(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, sessionFile(t))

	restored, err := c.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore() unexpected error: %v", err)
	}
	if restored {
		t.Error("Restore() = true with no session file")
	}
}

func TestRejectedTokenDiscardsSession(t *testing.T) {
	srv := newTestServer(t)
	path := sessionFile(t)
	ctx := context.Background()

	c := New(srv.URL, path)
	if _, err := c.Register(ctx, "alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	// Corrupt the in-memory token; the next call is rejected and the
	// session, including the file, is discarded.
	c.token = "garbage"
	_, err := c.ListTasks(ctx)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("ListTasks() error = %v, want ErrUnauthorized", err)
	}
	if c.Token() != "" || c.User() != nil {
		t.Error("rejected token left session state behind")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("session file still exists after rejection: %v", err)
	}

	// Restore now reports anonymous.
	restored, err := c.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore() unexpected error: %v", err)
	}
	if restored {
		t.Error("Restore() = true after the session was rejected")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "")

	payload, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() unexpected error: %v", err)
	}
	if _, ok := payload["uptimeSeconds"]; !ok {
		t.Error("Health() payload missing uptimeSeconds")
	}
}
