package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Kolawole99/henry-capstone/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		system_prompt TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		filepath TEXT NOT NULL,
		size INTEGER NOT NULL,
		agent_id TEXT REFERENCES agents(id) ON DELETE CASCADE,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_files_agent_id ON files(agent_id);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		agent_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session_id ON chat_messages(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateAgent inserts an agent record.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, name, description, system_prompt, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		agent.ID, agent.Name, agent.Description, agent.SystemPrompt, agent.CreatedAt,
	)
	return err
}

// GetAgent returns the agent with the given id, or nil when it does not exist.
func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, system_prompt, created_at
		 FROM agents WHERE id = ?`, id,
	).Scan(&agent.ID, &agent.Name, &agent.Description, &agent.SystemPrompt, &agent.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// ListAgents returns all agents ordered by creation time.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, system_prompt, created_at
		 FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		var agent models.Agent
		if err := rows.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.SystemPrompt, &agent.CreatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, &agent)
	}
	return agents, rows.Err()
}

// DeleteAgent removes an agent and, via cascade, its file records.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}
	return nil
}

// CreateFile inserts a file record.
func (s *SQLiteStore) CreateFile(ctx context.Context, file *models.File) error {
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now()
	}
	agentID := sql.NullString{String: file.AgentID, Valid: file.AgentID != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, name, filepath, size, agent_id, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		file.ID, file.Name, file.Filepath, file.Size, agentID, file.UploadedAt,
	)
	return err
}

// GetFile returns the file with the given id, or nil when it does not exist.
func (s *SQLiteStore) GetFile(ctx context.Context, id string) (*models.File, error) {
	var file models.File
	var agentID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, filepath, size, agent_id, uploaded_at
		 FROM files WHERE id = ?`, id,
	).Scan(&file.ID, &file.Name, &file.Filepath, &file.Size, &agentID, &file.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	file.AgentID = agentID.String
	return &file, nil
}

// ListFiles returns all uploaded files.
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]*models.File, error) {
	return s.listFiles(ctx,
		`SELECT id, name, filepath, size, agent_id, uploaded_at
		 FROM files ORDER BY uploaded_at`)
}

// ListFilesByAgent returns the files uploaded for one agent.
func (s *SQLiteStore) ListFilesByAgent(ctx context.Context, agentID string) ([]*models.File, error) {
	return s.listFiles(ctx,
		`SELECT id, name, filepath, size, agent_id, uploaded_at
		 FROM files WHERE agent_id = ? ORDER BY uploaded_at`, agentID)
}

func (s *SQLiteStore) listFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.File
	for rows.Next() {
		var file models.File
		var agentID sql.NullString
		if err := rows.Scan(&file.ID, &file.Name, &file.Filepath, &file.Size, &agentID, &file.UploadedAt); err != nil {
			return nil, err
		}
		file.AgentID = agentID.String
		files = append(files, &file)
	}
	return files, rows.Err()
}

// DeleteFile removes a file record.
func (s *SQLiteStore) DeleteFile(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("file not found: %s", id)
	}
	return nil
}

// EnsureSession creates the chat session row if it does not already exist.
func (s *SQLiteStore) EnsureSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, id)
	return err
}

// AppendMessage stores one chat turn.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	agentID := sql.NullString{String: msg.AgentID, Valid: msg.AgentID != ""}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, agent_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, agentID, msg.CreatedAt,
	)
	if err != nil {
		return err
	}
	msg.ID, _ = result.LastInsertId()
	return nil
}

// ListMessages returns a session's messages in insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, agent_id, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var agentID sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &agentID, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.AgentID = agentID.String
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
