package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Session is the persisted login: the token and username the service
// issued, written at login/signup and cleared at logout. It is the CLI
// equivalent of the browser client stashing both in local storage.
type Session struct {
	Username  string
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionRepository stores at most one session row.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a repository over an open connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the single session row.
func (r *SessionRepository) Save(username, token string) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (id, username, token, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			token = excluded.token,
			updated_at = CURRENT_TIMESTAMP`,
		username, token)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or nil when no one is logged in.
func (r *SessionRepository) Load() (*Session, error) {
	row := r.db.QueryRow("SELECT username, token, created_at, updated_at FROM sessions WHERE id = 1")

	var s Session
	err := row.Scan(&s.Username, &s.Token, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

// Clear removes the persisted session. Clearing an already-empty store is
// not an error.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = 1"); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
