// Package storage persists agent, file and chat records in SQLite. The query
// pipeline reads agents through it; it never mutates index contents itself.
package storage

import (
	"context"

	"github.com/Kolawole99/henry-capstone/models"
)

// Store defines the persistence operations for agents, uploaded files and
// chat history.
type Store interface {
	// Agent operations
	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]*models.Agent, error)
	DeleteAgent(ctx context.Context, id string) error

	// File operations
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id string) (*models.File, error)
	ListFiles(ctx context.Context) ([]*models.File, error)
	ListFilesByAgent(ctx context.Context, agentID string) ([]*models.File, error)
	DeleteFile(ctx context.Context, id string) error

	// Chat operations
	EnsureSession(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error)

	Close() error
}
