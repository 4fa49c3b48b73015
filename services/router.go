package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Kolawole99/henry-capstone/models"
)

// AgentDirectory is the slice of the persistence layer the pipeline reads
// agents through. The roster is fetched fresh on every routing decision; it
// may change between requests, so nothing here is cached.
type AgentDirectory interface {
	ListAgents(ctx context.Context) ([]*models.Agent, error)
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
}

// Router selects which agent should answer a query.
type Router interface {
	Route(ctx context.Context, query models.UserQuery) (models.RoutingDecision, error)
}

// routingSchema constrains the dispatcher's output. An empty agent_id signals
// that no listed agent covers the query.
var routingSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"agent_id": {
			Type:        genai.TypeString,
			Description: "ID of the selected agent, or empty string when none fits",
		},
		"agent_name": {
			Type:        genai.TypeString,
			Description: "Name of the selected agent, or empty string",
		},
		"confidence": {
			Type:        genai.TypeNumber,
			Description: "Fit estimate between 0 and 1",
		},
		"reasoning": {
			Type:        genai.TypeString,
			Description: "Short justification for the choice",
		},
	},
	Required: []string{"agent_id", "agent_name", "confidence", "reasoning"},
}

// DispatcherRouter implements Router with a roster-prompted structured
// completion.
type DispatcherRouter struct {
	agents    AgentDirectory
	completer Completer
	logger    *zap.Logger
}

// NewDispatcherRouter builds a router over the agent directory and completion
// service.
func NewDispatcherRouter(agents AgentDirectory, completer Completer, logger *zap.Logger) *DispatcherRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatcherRouter{agents: agents, completer: completer, logger: logger}
}

// Route fetches the current roster, asks the model for a structured decision
// and validates it against the roster. A decision naming an agent that is not
// in the roster counts as malformed output.
func (r *DispatcherRouter) Route(ctx context.Context, query models.UserQuery) (models.RoutingDecision, error) {
	agents, err := r.agents.ListAgents(ctx)
	if err != nil {
		return models.RoutingDecision{}, fmt.Errorf("%w: list agents: %v", ErrRoutingFailure, err)
	}

	var roster strings.Builder
	for _, agent := range agents {
		fmt.Fprintf(&roster, "- ID: %s, Name: %s, Description: %s\n", agent.ID, agent.Name, agent.Description)
	}

	userPrompt := fmt.Sprintf("Available Agents:\n%s\nUser Query: %s\n\nRoute this query to the best agent.", roster.String(), query.Text)

	var decision models.RoutingDecision
	if err := r.completer.GenerateStructured(ctx, routerPrompt, userPrompt, routingSchema, &decision); err != nil {
		return models.RoutingDecision{}, fmt.Errorf("%w: %v", ErrRoutingFailure, err)
	}

	if decision.AgentID != "" {
		matched := false
		for _, agent := range agents {
			if agent.ID == decision.AgentID {
				// The roster is authoritative for the name.
				decision.AgentName = agent.Name
				matched = true
				break
			}
		}
		if !matched {
			return models.RoutingDecision{}, fmt.Errorf("%w: decision names unknown agent %q", ErrRoutingFailure, decision.AgentID)
		}
	}

	r.logger.Info("routed query",
		zap.String("agent_id", decision.AgentID),
		zap.String("agent_name", decision.AgentName),
		zap.Float64("confidence", decision.Confidence))
	return decision, nil
}
