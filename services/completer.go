package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for every pipeline stage.
const DefaultModel = "gemini-2.5-flash"

// Completer is the contract the pipeline stages have with the language-model
// completion service: free text for drafting, schema-constrained JSON for
// routing, auditing and agent provisioning. The interface is defined here, by
// the consumer, so stages can be tested against fakes.
type Completer interface {
	// GenerateText returns a free-text completion for the given system
	// directive and user content.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateStructured asks the model for output conforming to schema and
	// unmarshals it into out. A malformed or unparseable response is an
	// error; callers map it onto their stage sentinel.
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, out any) error
}

// GeminiCompleter implements Completer on top of the Gemini API client.
type GeminiCompleter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiCompleter wraps an existing Gemini client. An empty model selects
// DefaultModel.
func NewGeminiCompleter(client *genai.Client, model string, logger *zap.Logger) *GeminiCompleter {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiCompleter{client: client, model: model, logger: logger}
}

// GenerateText implements Completer.
func (g *GeminiCompleter) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no content")
	}
	return text, nil
}

// GenerateStructured implements Completer. It requests JSON output constrained
// to schema and decodes it into out.
func (g *GeminiCompleter) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, out any) error {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), config)
	if err != nil {
		return fmt.Errorf("gemini api call failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return fmt.Errorf("gemini returned no content")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		g.logger.Warn("malformed structured output", zap.String("model", g.model), zap.Error(err))
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}
