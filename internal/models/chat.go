package models

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload the browser sends to the chat endpoint.
// The full transcript is resent on every call.
type ChatRequest struct {
	Messages      []ChatMessage `json:"messages"`
	ModelProvider string        `json:"modelProvider"`
	ModelName     string        `json:"modelName"`
}

// ChatResponse carries the generated reply rendered as HTML.
type ChatResponse struct {
	Response      string `json:"response"`
	ModelProvider string `json:"modelProvider"`
}

// ErrorProvider is the modelProvider value used in every chat error envelope.
const ErrorProvider = "error"

// ChatErrorResponse is the chat endpoint's failure envelope.
type ChatErrorResponse struct {
	Error         string `json:"error"`
	ModelProvider string `json:"modelProvider"`
}

// UpstreamRequest is the body sent to a provider through the gateway.
type UpstreamRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}
