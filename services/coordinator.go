package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
)

// NoMatchMessage is returned when agents exist but the dispatcher finds none
// whose knowledge area covers the query.
const NoMatchMessage = "None of the available agents can help with that question. Try rephrasing it, or ask about a topic one of the agents covers."

// Coordinator runs the full query pipeline: route, draft, audit. Each stage
// is one blocking call; any stage failure aborts the query and surfaces to
// the caller. Nothing is retried and no stage output is reused on failure.
type Coordinator struct {
	agents     AgentDirectory
	router     Router
	specialist Specialist
	auditor    Auditor
	logger     *zap.Logger
}

// NewCoordinator wires the pipeline stages together. All dependencies are
// injected; the coordinator holds no lazily initialized state.
func NewCoordinator(agents AgentDirectory, router Router, specialist Specialist, auditor Auditor, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		agents:     agents,
		router:     router,
		specialist: specialist,
		auditor:    auditor,
		logger:     logger,
	}
}

// ProcessQuery answers one query. agentID, when non-empty, pins the query to
// that agent and skips the dispatcher; the roster-cardinality check still
// runs first, so an empty roster short-circuits before any model call.
func (c *Coordinator) ProcessQuery(ctx context.Context, text, role, agentID string) (*models.QueryResult, error) {
	query := models.UserQuery{Text: text, Role: role, AgentID: agentID}

	roster, err := c.agents.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if len(roster) == 0 {
		c.logger.Info("no agents available", zap.String("query", text))
		return &models.QueryResult{
			FinalAnswer: NoAgentsMessage,
			AgentLabel:  SystemLabel,
			Sources:     []string{},
		}, nil
	}

	decision, err := c.decide(ctx, query, roster)
	if err != nil {
		return nil, err
	}
	if !decision.Routed() {
		c.logger.Info("no agent matched",
			zap.String("query", text),
			zap.String("reasoning", decision.Reasoning))
		return &models.QueryResult{
			FinalAnswer: NoMatchMessage,
			AgentLabel:  SystemLabel,
			Sources:     []string{},
		}, nil
	}

	draft, err := c.specialist.Draft(ctx, query, decision)
	if err != nil {
		return nil, err
	}

	verdict, err := c.auditor.Audit(ctx, query.Text, draft)
	if err != nil {
		return nil, err
	}

	sources := draft.Sources
	if sources == nil {
		sources = []string{}
	}
	result := &models.QueryResult{
		FinalAnswer: verdict.FinalAnswer,
		AgentLabel:  decision.AgentName,
		Sources:     sources,
	}
	if !verdict.IsSafe {
		result.AuditFeedback = verdict.Feedback
	}
	return result, nil
}

// decide produces the routing decision: a synthesized one when the caller
// pinned an agent, otherwise the dispatcher's.
func (c *Coordinator) decide(ctx context.Context, query models.UserQuery, roster []*models.Agent) (models.RoutingDecision, error) {
	if query.AgentID == "" {
		return c.router.Route(ctx, query)
	}
	for _, agent := range roster {
		if agent.ID == query.AgentID {
			return models.RoutingDecision{
				AgentID:    agent.ID,
				AgentName:  agent.Name,
				Confidence: 1.0,
				Reasoning:  "agent explicitly requested by caller",
			}, nil
		}
	}
	return models.RoutingDecision{}, fmt.Errorf("%w: requested agent %q does not exist", ErrRoutingFailure, query.AgentID)
}
