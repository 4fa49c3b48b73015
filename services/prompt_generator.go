package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeneratedAgentPrompt is the structured output of agent provisioning: a
// system directive for the new agent plus a routing-catalog description.
type GeneratedAgentPrompt struct {
	SystemPrompt       string `json:"system_prompt"`
	RefinedDescription string `json:"refined_description"`
}

var agentPromptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"system_prompt": {
			Type:        genai.TypeString,
			Description: "Complete system directive for the new agent",
		},
		"refined_description": {
			Type:        genai.TypeString,
			Description: "One or two sentence description for the routing catalog",
		},
	},
	Required: []string{"system_prompt", "refined_description"},
}

// PromptGenerator provisions directives for newly created agents.
type PromptGenerator struct {
	completer Completer
	logger    *zap.Logger
}

// NewPromptGenerator builds a generator over the completion service.
func NewPromptGenerator(completer Completer, logger *zap.Logger) *PromptGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptGenerator{completer: completer, logger: logger}
}

// Generate asks the model for a specialized system directive and refined
// description for an agent described by the user.
func (p *PromptGenerator) Generate(ctx context.Context, agentName, userDescription string) (GeneratedAgentPrompt, error) {
	userPrompt := fmt.Sprintf("Now generate for:\nAgent Name: %s\nUser Description: %s", agentName, userDescription)

	var generated GeneratedAgentPrompt
	if err := p.completer.GenerateStructured(ctx, agentGeneratorPrompt, userPrompt, agentPromptSchema, &generated); err != nil {
		return GeneratedAgentPrompt{}, fmt.Errorf("generate agent prompt: %w", err)
	}
	if generated.SystemPrompt == "" {
		return GeneratedAgentPrompt{}, fmt.Errorf("generate agent prompt: empty system prompt returned")
	}

	p.logger.Info("generated agent prompt", zap.String("agent_name", agentName))
	return generated, nil
}
