package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
	"github.com/Kolawole99/henry-capstone/services"
	"github.com/Kolawole99/henry-capstone/storage"
)

// DirectiveGenerator provisions the system directive for a new agent.
type DirectiveGenerator interface {
	Generate(ctx context.Context, agentName, userDescription string) (services.GeneratedAgentPrompt, error)
}

// ChunkIndexes resolves the chunk index for an agent's collection, used when
// tearing an agent down.
type ChunkIndexes interface {
	IndexFor(ctx context.Context, agentID string) (services.Ingestor, error)
}

// AgentController handles agent CRUD.
type AgentController struct {
	store     storage.Store
	generator DirectiveGenerator
	indexes   ChunkIndexes
	logger    *zap.Logger
}

// NewAgentController builds the controller with its injected dependencies.
func NewAgentController(store storage.Store, generator DirectiveGenerator, indexes ChunkIndexes, logger *zap.Logger) *AgentController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentController{store: store, generator: generator, indexes: indexes, logger: logger}
}

// Create is the handler for POST /api/v1/agents. The agent's system directive
// and catalog description are generated from the user's rough description.
func (c *AgentController) Create(ctx *gin.Context) {
	var req models.CreateAgentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	reqCtx := ctx.Request.Context()

	generated, err := c.generator.Generate(reqCtx, req.Name, req.Description)
	if err != nil {
		c.logger.Error("agent provisioning failed", zap.String("name", req.Name), zap.Error(err))
		ctx.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to generate agent directive"})
		return
	}

	agent := &models.Agent{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  generated.RefinedDescription,
		SystemPrompt: generated.SystemPrompt,
	}
	if err := c.store.CreateAgent(reqCtx, agent); err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to create agent"})
		return
	}

	ctx.JSON(http.StatusCreated, agent)
}

// List is the handler for GET /api/v1/agents.
func (c *AgentController) List(ctx *gin.Context) {
	agents, err := c.store.ListAgents(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list agents"})
		return
	}
	if agents == nil {
		agents = []*models.Agent{}
	}
	ctx.JSON(http.StatusOK, agents)
}

// Delete is the handler for DELETE /api/v1/agents/:id. It removes the agent's
// chunks from its collection before dropping the records; an index that
// cannot be reached leaves the chunks for a later retry but still logs it.
func (c *AgentController) Delete(ctx *gin.Context) {
	agentID := ctx.Param("id")
	reqCtx := ctx.Request.Context()

	agent, err := c.store.GetAgent(reqCtx, agentID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load agent"})
		return
	}
	if agent == nil {
		ctx.JSON(http.StatusNotFound, models.ErrorResponse{Error: "agent not found"})
		return
	}

	files, err := c.store.ListFilesByAgent(reqCtx, agentID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list agent files"})
		return
	}
	if len(files) > 0 {
		index, err := c.indexes.IndexFor(reqCtx, agentID)
		if err != nil {
			c.logger.Warn("index unreachable, leaving chunks behind", zap.String("agent_id", agentID), zap.Error(err))
		} else {
			for _, file := range files {
				if _, err := index.DeleteFile(reqCtx, file.ID); err != nil {
					c.logger.Warn("failed to delete file chunks", zap.String("file_id", file.ID), zap.Error(err))
				}
			}
		}
	}

	if err := c.store.DeleteAgent(reqCtx, agentID); err != nil {
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete agent"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "agent deleted"})
}
