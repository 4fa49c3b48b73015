package models

// OllamaEmbedRequest is the request body for the Ollama embeddings API.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse carries the embedding vector returned by Ollama.
type OllamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}
