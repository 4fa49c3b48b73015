package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
)

// Retriever is the slice of the vector store the specialist consumes.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.SourceDocument, error)
}

// RetrieverSource resolves an agent identifier to that agent's retriever.
type RetrieverSource interface {
	RetrieverFor(ctx context.Context, agentID string) (Retriever, error)
}

// RetrieverFor adapts CollectionManager to the RetrieverSource interface.
func (m *CollectionManager) RetrieverFor(ctx context.Context, agentID string) (Retriever, error) {
	return m.ForAgent(ctx, agentID)
}

// IndexFor exposes an agent's store through the narrower Ingestor contract
// used by the file-management side.
func (m *CollectionManager) IndexFor(ctx context.Context, agentID string) (Ingestor, error) {
	return m.ForAgent(ctx, agentID)
}

// Specialist produces a draft answer for a routed query.
type Specialist interface {
	Draft(ctx context.Context, query models.UserQuery, decision models.RoutingDecision) (models.AgentResponse, error)
}

// RAGSpecialist implements Specialist with retrieval-augmented drafting: it
// pulls the top chunks from the routed agent's collection, stuffs them into
// the prompt and attributes the answer to their source files.
type RAGSpecialist struct {
	agents     AgentDirectory
	retrievers RetrieverSource
	completer  Completer
	logger     *zap.Logger
}

// NewRAGSpecialist builds a specialist over the agent directory, collection
// manager and completion service.
func NewRAGSpecialist(agents AgentDirectory, retrievers RetrieverSource, completer Completer, logger *zap.Logger) *RAGSpecialist {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGSpecialist{
		agents:     agents,
		retrievers: retrievers,
		completer:  completer,
		logger:     logger,
	}
}

// Draft implements Specialist. An empty AgentID in the decision drafts from
// the shared default collection with the generic directive.
func (s *RAGSpecialist) Draft(ctx context.Context, query models.UserQuery, decision models.RoutingDecision) (models.AgentResponse, error) {
	directive := fallbackDirective
	if decision.AgentID != "" {
		agent, err := s.agents.GetAgent(ctx, decision.AgentID)
		if err != nil {
			return models.AgentResponse{}, fmt.Errorf("%w: load agent %s: %v", ErrGenerationFailure, decision.AgentID, err)
		}
		if agent != nil && agent.SystemPrompt != "" {
			directive = agent.SystemPrompt
		}
	}

	retriever, err := s.retrievers.RetrieverFor(ctx, decision.AgentID)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	chunks, err := retriever.Retrieve(ctx, query.Text, DefaultTopK)
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}

	var prompt strings.Builder
	prompt.WriteString(specialistContextHeader)
	if len(chunks) == 0 {
		prompt.WriteString("(no relevant documents found)\n")
	}
	for i, chunk := range chunks {
		fmt.Fprintf(&prompt, "[%d] %s\n\n", i+1, chunk.Text)
	}
	fmt.Fprintf(&prompt, "Question: %s", query.Text)

	answer, err := s.completer.GenerateText(ctx, directive, prompt.String())
	if err != nil {
		return models.AgentResponse{}, fmt.Errorf("%w: %v", ErrGenerationFailure, err)
	}

	label := decision.AgentName
	if label == "" {
		label = SystemLabel
	}

	response := models.AgentResponse{
		Answer:    answer,
		Sources:   distinctSources(chunks),
		AgentName: label,
	}
	s.logger.Info("drafted answer",
		zap.String("agent", label),
		zap.Int("chunks", len(chunks)),
		zap.Int("sources", len(response.Sources)))
	return response, nil
}

// distinctSources collects the source filenames of the chunks that were fed
// to the model, deduplicated and in first-seen order.
func distinctSources(chunks []models.SourceDocument) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.SourceFile == "" {
			continue
		}
		if _, ok := seen[chunk.SourceFile]; ok {
			continue
		}
		seen[chunk.SourceFile] = struct{}{}
		sources = append(sources, chunk.SourceFile)
	}
	return sources
}
