package models

// ChatResponse is the body returned by POST /api/v1/chat.
type ChatResponse struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	Agent     string   `json:"agent"`
	Sources   []string `json:"sources"`
	Feedback  string   `json:"feedback,omitempty"`
}

// FileResponse is the body returned for file listing and upload.
type FileResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	AgentID    string `json:"agent_id,omitempty"`
	UploadedAt string `json:"uploaded_at"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
