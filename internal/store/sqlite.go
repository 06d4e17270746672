package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chat_turns (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        user_id INTEGER NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'agent')),
        content TEXT NOT NULL,
        timestamp DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_chat_turns_session_user
        ON chat_turns (session_id, user_id, timestamp);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash, role string) (*User, error) {
	if role == "" {
		role = "user"
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)",
		username, email, passwordHash, role)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(ctx, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Conversation log methods

// AppendTurnPair writes one user turn and the matching agent turn in a single
// transaction so a reader of the log never observes half an exchange. IDs and
// timestamps are assigned here; the agent turn is stamped strictly after the
// user turn so ascending-timestamp reads keep the pair in order.
func (s *SQLiteStore) AppendTurnPair(ctx context.Context, userTurn, agentTurn *ChatTurn) error {
	if userTurn.Role != RoleUser || agentTurn.Role != RoleAgent {
		return fmt.Errorf("turn pair must be one %q turn followed by one %q turn", RoleUser, RoleAgent)
	}

	now := time.Now().UTC()
	userTurn.ID = uuid.NewString()
	userTurn.Timestamp = now
	agentTurn.ID = uuid.NewString()
	agentTurn.Timestamp = now.Add(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin turn-pair transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chat_turns (id, session_id, user_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare turn insert: %w", err)
	}
	defer stmt.Close()

	for _, turn := range []*ChatTurn{userTurn, agentTurn} {
		if _, err := stmt.ExecContext(ctx, turn.ID, turn.SessionID, turn.UserID, turn.Role, turn.Content, turn.Timestamp); err != nil {
			return fmt.Errorf("failed to insert %s turn: %w", turn.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn pair: %w", err)
	}
	return nil
}

// TurnsBySession returns the log for one conversation, oldest first. Both the
// session id and the user id must match: a guessed session id alone does not
// grant access to another user's history.
func (s *SQLiteStore) TurnsBySession(ctx context.Context, sessionID string, userID int64) ([]ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, session_id, user_id, role, content, timestamp
        FROM chat_turns
        WHERE session_id = ? AND user_id = ?
        ORDER BY timestamp ASC`,
		sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat turns: %w", err)
	}
	defer rows.Close()

	var turns []ChatTurn
	for rows.Next() {
		var turn ChatTurn
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.UserID, &turn.Role, &turn.Content, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat turn row: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
