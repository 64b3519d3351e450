package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gcOssi/spark6/internal/models"
)

var (
	// ErrMissingFields is returned when a registration omits a field.
	ErrMissingFields = errors.New("username, email and password are required")
	// ErrMissingCredentials is returned when a login omits a field.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrInvalidCredentials covers both unknown users and wrong passwords so
	// callers cannot probe for account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when no user matches the given id.
	ErrUserNotFound = errors.New("user not found")
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id int64) (models.User, error)
	Register(username, email, password string) (models.User, error)
	Authenticate(identifier, password string) (models.User, error)
	ListUsers() ([]models.DebugUser, error)
	CountUsers() (int, error)
}

// UserService provides business logic for account management.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, email, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByUsernameOrEmail retrieves the user whose username or email equals
// the identifier, including the password hash.
func (s *UserService) getUserByUsernameOrEmail(identifier string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ? OR email = ?",
		identifier, identifier,
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new user, hashing their password. Either a colliding
// username or a colliding email rejects the registration.
func (s *UserService) Register(username, email, password string) (models.User, error) {
	if username == "" || email == "" || password == "" {
		return models.User{}, ErrMissingFields
	}

	for _, identifier := range []string{username, email} {
		if _, err := s.getUserByUsernameOrEmail(identifier); err == nil {
			return models.User{}, ErrDuplicateUser
		} else if !errors.Is(err, ErrUserNotFound) {
			return models.User{}, err
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		username, email, string(hashedPassword), now,
	)
	if err != nil {
		// Backstop for inserts racing past the pre-check.
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	user := models.User{ID: id, Username: username, Email: email, CreatedAt: now}
	recordEvent(s.events, "auth.register", "info", fmt.Sprintf("User '%s' registered.", username), &user.ID)
	return user, nil
}

// Authenticate verifies a username-or-email plus password pair. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(identifier, password string) (models.User, error) {
	if identifier == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	user, err := s.getUserByUsernameOrEmail(identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	recordEvent(s.events, "auth.login", "info", fmt.Sprintf("User '%s' logged in.", user.Username), &user.ID)
	return user, nil
}

// ListUsers returns the sanitized listing used by the debug route.
func (s *UserService) ListUsers() ([]models.DebugUser, error) {
	rows, err := s.db.Query("SELECT id, username, email, password_hash FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.DebugUser, 0)
	for rows.Next() {
		var user models.DebugUser
		var hash string
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &hash); err != nil {
			return nil, err
		}
		user.HasPassword = hash != ""
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers returns the number of registered users.
func (s *UserService) CountUsers() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
