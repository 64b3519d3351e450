package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gcOssi/spark6/internal/models"
)

var (
	// ErrMissingTaskFields is returned when a task is created without a
	// title or description.
	ErrMissingTaskFields = errors.New("title and description are required")
	// ErrTaskNotFound is returned when no task with the given id belongs to
	// the requesting user. A task owned by someone else produces the same
	// error as a task that does not exist.
	ErrTaskNotFound = errors.New("task not found")
)

const taskColumns = "id, title, description, completed, created_at, user_id"

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	GetTasksForUser(userID int64) ([]models.Task, error)
	GetTaskByID(userID, taskID int64) (models.Task, error)
	CreateTask(userID int64, title, description string) (models.Task, error)
	UpdateTask(userID, taskID int64, update models.TaskUpdate) (models.Task, error)
	DeleteTask(userID, taskID int64) (models.Task, error)
	CountTasks() (int, error)
}

// TaskService provides business logic for task management. Every query is
// scoped by the owning user's id; ownership is re-checked on each access,
// not just when listing.
type TaskService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB, events EventServiceProvider) *TaskService {
	return &TaskService{db: db, events: events}
}

// GetTasksForUser retrieves all tasks owned by the user, in insertion order.
func (s *TaskService) GetTasksForUser(userID int64) ([]models.Task, error) {
	rows, err := s.db.Query("SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanTasks(rows)
}

// GetTaskByID retrieves a single task by id, provided the user owns it.
func (s *TaskService) GetTaskByID(userID, taskID int64) (models.Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	return s.scanTask(row)
}

// CreateTask creates a new task owned by the user. New tasks always start
// uncompleted.
func (s *TaskService) CreateTask(userID int64, title, description string) (models.Task, error) {
	if title == "" || description == "" {
		return models.Task{}, ErrMissingTaskFields
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO tasks (title, description, completed, created_at, user_id) VALUES (?, ?, ?, ?, ?)",
		title, description, false, now, userID,
	)
	if err != nil {
		return models.Task{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UserID:      userID,
	}
	recordEvent(s.events, "task.create", "info", fmt.Sprintf("Task '%s' created.", title), &userID)
	return task, nil
}

// UpdateTask applies a partial update to a task the user owns. Only the
// fields present in the update are changed; the rest keep their values.
func (s *TaskService) UpdateTask(userID, taskID int64, update models.TaskUpdate) (models.Task, error) {
	// The read and the write share one transaction so a concurrent update
	// cannot write back stale field values between them.
	tx, err := s.db.Begin()
	if err != nil {
		return models.Task{}, err
	}
	defer tx.Rollback()

	task, err := s.scanTask(tx.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID))
	if err != nil {
		return models.Task{}, err
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}

	_, err = tx.Exec(
		"UPDATE tasks SET title = ?, description = ?, completed = ? WHERE id = ? AND user_id = ?",
		task.Title, task.Description, task.Completed, taskID, userID,
	)
	if err != nil {
		return models.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, err
	}

	recordEvent(s.events, "task.update", "info", fmt.Sprintf("Task '%s' updated.", task.Title), &userID)
	return task, nil
}

// DeleteTask removes a task the user owns and returns the deleted record. The
// read and the delete run in one transaction so the returned record is the
// one that was removed.
func (s *TaskService) DeleteTask(userID, taskID int64) (models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Task{}, err
	}
	defer tx.Rollback()

	task, err := s.scanTask(tx.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID))
	if err != nil {
		return models.Task{}, err
	}

	if _, err := tx.Exec("DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID); err != nil {
		return models.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, err
	}

	recordEvent(s.events, "task.delete", "warn", fmt.Sprintf("Task '%s' was deleted.", task.Title), &userID)
	return task, nil
}

// CountTasks returns the number of tasks across all users.
func (s *TaskService) CountTasks() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count)
	return count, err
}

// scanTasks is a helper function to scan multiple rows into a slice of Tasks.
func (s *TaskService) scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := s.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// scanTask is a helper function to scan a single row into a Task struct.
func (s *TaskService) scanTask(scanner interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	err := scanner.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}
