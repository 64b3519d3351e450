package database

import (
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // SQLite driver
)

// New creates the database handle backing the user, task and event tables.
// The default DSN is ":memory:", matching the process-lifetime data model:
// nothing survives a restart. The pool is capped at a single connection —
// every pool connection of an in-memory SQLite database would otherwise see
// its own empty database, and the single connection also serializes writers.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
// AUTOINCREMENT keeps ids monotonic: an id is never reused, even after the
// row it belonged to is deleted.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id INTEGER,
		created_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// Seed inserts the demo accounts and tasks when the users table is empty.
// Both demo accounts use the password "admin123". Registrations made at
// runtime always receive ids above the seeded rows.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	demoUsers := []struct {
		username string
		email    string
	}{
		{"admin", "admin@example.com"},
		{"usuario", "usuario@example.com"},
	}
	for _, u := range demoUsers {
		_, err := db.Exec(
			"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
			u.username, u.email, string(hash), now,
		)
		if err != nil {
			return err
		}
	}

	demoTasks := []struct {
		title       string
		description string
		completed   bool
		userID      int64
	}{
		{"Learn Docker", "Create containers for apps", false, 1},
		{"Configure the API", "Build the REST endpoints", true, 1},
		{"Connect the frontend", "Wire the client app to the API", false, 2},
	}
	for _, t := range demoTasks {
		_, err := db.Exec(
			"INSERT INTO tasks (title, description, completed, created_at, user_id) VALUES (?, ?, ?, ?, ?)",
			t.title, t.description, t.completed, now, t.userID,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
