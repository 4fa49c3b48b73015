package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
)

const defaultEmbedModel = "nomic-embed-text:v1.5"

// Embedder turns text into a vector. The pipeline treats the embedding engine
// as a black box behind this contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OllamaEmbedder generates embeddings through a local Ollama instance.
type OllamaEmbedder struct {
	httpClient *http.Client
	baseURL    string
	model      string
	logger     *zap.Logger
}

// NewOllamaEmbedder builds an embedder against the Ollama API at baseURL
// (for example "http://localhost:11434"). An empty model selects the default
// embedding model.
func NewOllamaEmbedder(httpClient *http.Client, baseURL, model string, logger *zap.Logger) *OllamaEmbedder {
	if model == "" {
		model = defaultEmbedModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaEmbedder{
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      model,
		logger:     logger,
	}
}

// Embed implements Embedder.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  o.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return ollamaResp.Embedding, nil
}
