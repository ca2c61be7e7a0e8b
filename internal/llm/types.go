package llm

import "context"

// Client is the minimal surface every provider client implements.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Metadata    map[string]any
}

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type CompletionResponse struct {
	Content    string
	StopReason string
	Usage      TokenUsage
	// ModelInfo carries the provider's model_info metadata for the model
	// that served the request, when the configuration declares any.
	ModelInfo map[string]any
}

// Config holds everything a provider client needs beyond the model name.
// Azure uses Endpoint, APIVersion and Deployment; the other providers use
// APIKey and the optional BaseURL override.
type Config struct {
	APIKey     string
	BaseURL    string
	Endpoint   string
	APIVersion string
	Deployment string
	Timeout    int
	Headers    map[string]string
	ModelInfo  map[string]any
}
