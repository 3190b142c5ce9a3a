package llm

import (
	"context"

	"github.com/sabia-ai/sabia/types"
)

// Provider generates text from a chat-style prompt.
type Provider interface {
	// Completion sends the conversation and returns the model's reply.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name identifies the backend for logs and errors.
	Name() string
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []types.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

// ChatResponse is a chat completion result.
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
