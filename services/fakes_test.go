package services

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/Kolawole99/henry-capstone/models"
)

// fakeCompleter serves canned completions and records what it was asked.
type fakeCompleter struct {
	textResponse    string
	textErr         error
	structuredJSON  string
	structuredErr   error
	textCalls       int
	structuredCalls int
	lastSystem      string
	lastUser        string
}

func (f *fakeCompleter) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.textCalls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.textResponse, nil
}

func (f *fakeCompleter) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema, out any) error {
	f.structuredCalls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.structuredErr != nil {
		return f.structuredErr
	}
	return json.Unmarshal([]byte(f.structuredJSON), out)
}

// fakeDirectory serves a fixed agent roster.
type fakeDirectory struct {
	agents  []*models.Agent
	listErr error
}

func (f *fakeDirectory) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.agents, nil
}

func (f *fakeDirectory) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	for _, agent := range f.agents {
		if agent.ID == id {
			return agent, nil
		}
	}
	return nil, nil
}

// fakeRetriever returns fixed chunks for any query.
type fakeRetriever struct {
	chunks []models.SourceDocument
	err    error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.SourceDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

// fakeRetrieverSource hands out one retriever and records which agent it was
// asked for.
type fakeRetrieverSource struct {
	retriever   *fakeRetriever
	resolveErr  error
	lastAgentID string
}

func (f *fakeRetrieverSource) RetrieverFor(ctx context.Context, agentID string) (Retriever, error) {
	f.lastAgentID = agentID
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.retriever, nil
}

// fakeIngestor records ingest and delete calls keyed by file identifier.
type fakeIngestor struct {
	ingested   map[string]string // fileID -> path
	deleted    []string
	chunkCount int
	ingestErr  error
	deleteErr  error
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{ingested: make(map[string]string), chunkCount: 2}
}

func (f *fakeIngestor) IngestFile(ctx context.Context, path, fileID string) (int, error) {
	if f.ingestErr != nil {
		return 0, f.ingestErr
	}
	f.ingested[fileID] = path
	return f.chunkCount, nil
}

func (f *fakeIngestor) DeleteFile(ctx context.Context, fileID string) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = append(f.deleted, fileID)
	if _, ok := f.ingested[fileID]; !ok {
		return 0, nil
	}
	delete(f.ingested, fileID)
	return f.chunkCount, nil
}
