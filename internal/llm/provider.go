// Package llm drives a tool-calling conversation in which the model writes
// JavaScript against a site's webagents.md API.
package llm

import (
	"context"
	"fmt"

	"github.com/jhaveripatric/webagents/internal/client"
	"github.com/jhaveripatric/webagents/internal/config"
)

// Provider is a chat completion backend with tool calling.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is one completion call.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []client.FunctionTool
	Temperature  float64
	MaxTokens    int
}

// Response is the model's reply.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Message is a conversation turn. Role is user, assistant or tool.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *Usage) add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
}

// NewProvider creates the provider named in cfg.
func NewProvider(cfg config.AgentConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no api key for provider %s", cfg.Provider)
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
