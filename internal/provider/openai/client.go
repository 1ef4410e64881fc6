// Package openai adapts github.com/sashabaranov/go-openai to the
// model.Client surface (spec §4.2). It is grounded on goa-ai's
// features/model/openai/client.go, trimmed to the engine's flat
// role/content message shape: there is no function-calling or tool
// encoding here, since tool execution in this engine is the Agent's
// job, not the model's (spec §4.4).
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexous-ai/nexous/internal/model"
)

// AllowedModels is the closed model allow-list for the openai provider
// (spec §4.2 invariant: each provider variant has a closed model
// allow-list).
var AllowedModels = map[string]bool{
	"gpt-4o":          true,
	"gpt-4o-mini":     true,
	"gpt-4-turbo":     true,
	"gpt-4.1":         true,
	"gpt-4.1-mini":    true,
	"o3":              true,
	"o3-mini":         true,
	"o4-mini":         true,
}

// ChatClient captures the subset of the go-openai client the adapter
// calls, so tests can substitute a fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client implements model.Client on top of OpenAI Chat Completions.
type Client struct {
	chat      ChatClient
	available bool
}

// New builds an OpenAI-backed model.Client. apiKey may be empty, in
// which case IsAvailable reports false and Generate always fails
// non-recoverably; this lets a project reference the openai provider
// without requiring every developer machine to hold a key.
func New(apiKey string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &Client{available: false}
	}
	return &Client{chat: openai.NewClient(apiKey), available: true}
}

// NewWithClient wires an explicit ChatClient, primarily for tests.
func NewWithClient(chat ChatClient) *Client {
	return &Client{chat: chat, available: chat != nil}
}

// ProviderName returns the constant provider identifier.
func (c *Client) ProviderName() string { return "openai" }

// IsAvailable reports whether credentials are configured.
func (c *Client) IsAvailable() bool { return c.available }

// Generate performs one OpenAI chat completion call.
func (c *Client) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if !c.available {
		return model.Response{}, model.NewProviderError("openai", req.Model, "provider not configured: missing API key", false, nil)
	}
	if !AllowedModels[req.Model] {
		return model.Response{}, model.NewProviderError("openai", req.Model, fmt.Sprintf("model %q is not in the openai allow-list", req.Model), false, nil)
	}
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	request := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout*float64(time.Second)))
		defer cancel()
	}
	start := time.Now()
	resp, err := c.chat.CreateChatCompletion(ctx, request)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return model.Response{}, model.NewProviderError("openai", req.Model, err.Error(), isRecoverable(err), err)
	}
	if len(resp.Choices) == 0 {
		return model.Response{}, model.NewProviderError("openai", req.Model, "empty choices in response", true, nil)
	}
	choice := resp.Choices[0]
	return model.Response{
		Content:      choice.Message.Content,
		Provider:     "openai",
		Model:        req.Model,
		LatencyMS:    latency,
		FinishReason: string(choice.FinishReason),
		Usage: model.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// isRecoverable classifies an OpenAI SDK error as retriable (timeouts,
// rate limits, 5xx) or terminal (bad request, auth, model not found).
func isRecoverable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return true
		case 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
