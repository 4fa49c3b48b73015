package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
	"github.com/Kolawole99/henry-capstone/storage"
)

// Pipeline is the query entry point the chat controller drives.
type Pipeline interface {
	ProcessQuery(ctx context.Context, text, role, agentID string) (*models.QueryResult, error)
}

// ChatController handles the chat endpoint: it persists the conversation
// around each pipeline run.
type ChatController struct {
	pipeline Pipeline
	store    storage.Store
	logger   *zap.Logger
}

// NewChatController builds the controller with its injected dependencies.
func NewChatController(pipeline Pipeline, store storage.Store, logger *zap.Logger) *ChatController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatController{pipeline: pipeline, store: store, logger: logger}
}

// Chat is the handler for POST /api/v1/chat.
func (c *ChatController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	reqCtx := ctx.Request.Context()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if err := c.store.EnsureSession(reqCtx, sessionID); err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to open chat session"})
		return
	}
	if err := c.store.AppendMessage(reqCtx, &models.ChatMessage{
		SessionID: sessionID,
		Role:      "user",
		Content:   req.Message,
		AgentID:   req.AgentID,
	}); err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to record message"})
		return
	}

	role := req.Role
	if role == "" {
		role = "employee"
	}
	result, err := c.pipeline.ProcessQuery(reqCtx, req.Message, role, req.AgentID)
	if err != nil {
		c.logger.Error("query pipeline failed", zap.String("session_id", sessionID), zap.Error(err))
		ctx.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := c.store.AppendMessage(reqCtx, &models.ChatMessage{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   result.FinalAnswer,
		AgentID:   req.AgentID,
	}); err != nil {
		// The answer exists; losing the history row should not lose it.
		c.logger.Warn("failed to record assistant message", zap.String("session_id", sessionID), zap.Error(err))
	}

	ctx.JSON(http.StatusOK, models.ChatResponse{
		Response:  result.FinalAnswer,
		SessionID: sessionID,
		Agent:     result.AgentLabel,
		Sources:   result.Sources,
		Feedback:  result.AuditFeedback,
	})
}

// History is the handler for GET /api/v1/chat/:session_id.
func (c *ChatController) History(ctx *gin.Context) {
	sessionID := ctx.Param("session_id")
	messages, err := c.store.ListMessages(ctx.Request.Context(), sessionID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load messages"})
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}
	ctx.JSON(http.StatusOK, messages)
}
