package models

import "time"

// Agent is a knowledge profile: a named persona with its own document
// collection and system directive. The pipeline treats agents as read-only
// reference data owned by the storage layer.
type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// File is the persistence record for an uploaded document. Its ID is the
// deletion key for the chunks it contributed to the vector index.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Filepath   string    `json:"filepath"`
	Size       int64     `json:"size"`
	AgentID    string    `json:"agent_id,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ChatSession groups the messages of one conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is a single user or assistant turn within a session.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	AgentID   string    `json:"agent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
