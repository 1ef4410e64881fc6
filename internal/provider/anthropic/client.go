// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to the
// model.Client surface (spec §4.2). Grounded on goa-ai's
// features/model/anthropic/client.go, stripped of tool encoding,
// thinking budgets, and streaming (the engine never streams, spec
// §4.2 edge cases), and adjusted for Anthropic's distinct system-
// message encoding: unlike OpenAI, a "system" role message is
// not a conversation turn but a top-level params.System field.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nexous-ai/nexous/internal/model"
)

// AllowedModels is the closed model allow-list for the anthropic
// provider.
var AllowedModels = map[string]bool{
	"claude-opus-4-1-20250805":   true,
	"claude-sonnet-4-5-20250929": true,
	"claude-3-7-sonnet-20250219": true,
	"claude-3-5-haiku-20241022":  true,
}

// MessagesClient captures the subset of the Anthropic SDK the adapter
// calls, so tests can substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements model.Client on top of Anthropic Claude Messages.
type Client struct {
	msg       MessagesClient
	available bool
}

// New builds an Anthropic-backed model.Client. apiKey may be empty,
// mirroring the openai adapter's graceful-unavailable behavior.
func New(apiKey string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &Client{available: false}
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return &Client{msg: &ac.Messages, available: true}
}

// NewWithClient wires an explicit MessagesClient, primarily for tests.
func NewWithClient(msg MessagesClient) *Client {
	return &Client{msg: msg, available: msg != nil}
}

// ProviderName returns the constant provider identifier.
func (c *Client) ProviderName() string { return "anthropic" }

// IsAvailable reports whether credentials are configured.
func (c *Client) IsAvailable() bool { return c.available }

// Generate performs one Anthropic Messages.New call.
func (c *Client) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if !c.available {
		return model.Response{}, model.NewProviderError("anthropic", req.Model, "provider not configured: missing API key", false, nil)
	}
	if !AllowedModels[req.Model] {
		return model.Response{}, model.NewProviderError("anthropic", req.Model, fmt.Sprintf("model %q is not in the anthropic allow-list", req.Model), false, nil)
	}

	var system []sdk.TextBlockParam
	var conversation []sdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleSystem:
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case model.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case model.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	if len(conversation) == 0 {
		return model.Response{}, model.NewProviderError("anthropic", req.Model, "at least one user/assistant message is required", false, nil)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		return model.Response{}, model.NewProviderError("anthropic", req.Model, "max_tokens must be positive", false, nil)
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
		Model:     sdk.Model(req.Model),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout*float64(time.Second)))
		defer cancel()
	}
	start := time.Now()
	msg, err := c.msg.New(ctx, params)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return model.Response{}, model.NewProviderError("anthropic", req.Model, err.Error(), isRecoverable(err), err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return model.Response{
		Content:      content.String(),
		Provider:     "anthropic",
		Model:        req.Model,
		LatencyMS:    latency,
		FinishReason: string(msg.StopReason),
		Usage: model.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// isRecoverable classifies an Anthropic SDK error as retriable
// (rate-limited, server overloaded, 5xx) or terminal.
func isRecoverable(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 529:
			return true
		default:
			return false
		}
	}
	return errors.Is(err, context.DeadlineExceeded)
}
