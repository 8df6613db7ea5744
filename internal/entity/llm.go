package entity

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the model service request body
type ChatCompletionRequest struct {
	Model               string        `json:"model"`
	Messages            []ChatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
	Seed                int           `json:"seed"`
	Stop                []string      `json:"stop,omitempty"`
}

type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatCompletionResponse is the model service response body.
// Error is set by the service on soft failures returned with HTTP 200.
type ChatCompletionResponse struct {
	Choices []ChatChoice `json:"choices"`
	Error   any          `json:"error,omitempty"`
}

// EmbeddingRequest is the embedding service request body
type EmbeddingRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
}

type EmbeddingData struct {
	Embedding []float32 `json:"embedding"`
}

type EmbeddingResponse struct {
	Data  []EmbeddingData `json:"data"`
	Error any             `json:"error,omitempty"`
}
