package llm

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

const (
	TypeOpenAI   = "openai"
	TypeGoOpenAI = "go-openai"
)

type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionDefinition describes a callable function; Parameters is a JSON schema.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type ChatRequest struct {
	Model        string               `json:"model"`
	Messages     []Message            `json:"messages"`
	Functions    []FunctionDefinition `json:"functions,omitempty"`
	FunctionCall string               `json:"function_call,omitempty"`
}

type Choice struct {
	Message      Message
	FinishReason string
}

type ChatResponse struct {
	ID      string
	Model   string
	Choices []Choice
}

// First returns the first choice, the only one callers consume.
func (r ChatResponse) First() (Choice, error) {
	if len(r.Choices) == 0 {
		return Choice{}, ErrNoChoices
	}
	return r.Choices[0], nil
}

type StreamHandler func(delta string) error

type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest, handle StreamHandler) (ChatResponse, error)
}

// BuildRequest places the system instruction before the user message.
func BuildRequest(systemPrompt, userPrompt, model string) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userPrompt},
		},
	}
}

// NewClient returns the backend registered under kind. An empty kind selects
// the built-in HTTP client.
func NewClient(kind string, cfg OpenAIConfig) (Client, error) {
	switch kind {
	case "", TypeOpenAI:
		return NewOpenAIClient(cfg)
	case TypeGoOpenAI:
		return NewSDKClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm.type: %s", kind)
	}
}
