// Package gemini adapts google.golang.org/genai to the model.Client
// surface (spec §4.2). It has no teacher grounding — goa-ai's stack
// has no Gemini adapter — and is added as the natural ecosystem
// counterpart to the openai/anthropic adapters, following the same
// Options/New/Generate shape. Gemini does not report exact token
// counts in every response; when absent, usage is estimated with the
// engine-wide 4-characters-per-token heuristic (spec §4.2 edge case)
// and Response.Estimated is set.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/nexous-ai/nexous/internal/model"
)

// AllowedModels is the closed model allow-list for the gemini
// provider.
var AllowedModels = map[string]bool{
	"gemini-2.5-pro":   true,
	"gemini-2.5-flash": true,
	"gemini-2.0-flash": true,
}

// ContentGenerator captures the subset of the genai client the adapter
// calls, so tests can substitute a fake.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements model.Client on top of the Gemini Developer API.
type Client struct {
	gen       ContentGenerator
	available bool
}

// New builds a Gemini-backed model.Client from an API key.
func New(ctx context.Context, apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &Client{available: false}, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{gen: c.Models, available: true}, nil
}

// NewWithClient wires an explicit ContentGenerator, primarily for tests.
func NewWithClient(gen ContentGenerator) *Client {
	return &Client{gen: gen, available: gen != nil}
}

// ProviderName returns the constant provider identifier.
func (c *Client) ProviderName() string { return "gemini" }

// IsAvailable reports whether credentials are configured.
func (c *Client) IsAvailable() bool { return c.available }

// Generate performs one Gemini GenerateContent call.
func (c *Client) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if !c.available {
		return model.Response{}, model.NewProviderError("gemini", req.Model, "provider not configured: missing API key", false, nil)
	}
	if !AllowedModels[req.Model] {
		return model.Response{}, model.NewProviderError("gemini", req.Model, fmt.Sprintf("model %q is not in the gemini allow-list", req.Model), false, nil)
	}

	var systemInstruction *genai.Content
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleSystem:
			if m.Content != "" {
				systemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
			}
		case model.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case model.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}
	if len(contents) == 0 {
		return model.Response{}, model.NewProviderError("gemini", req.Model, "at least one user/assistant message is required", false, nil)
	}

	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if systemInstruction != nil {
		cfg.SystemInstruction = systemInstruction
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout*float64(time.Second)))
		defer cancel()
	}
	start := time.Now()
	resp, err := c.gen.GenerateContent(ctx, req.Model, contents, cfg)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return model.Response{}, model.NewProviderError("gemini", req.Model, err.Error(), isRecoverable(err), err)
	}
	text := resp.Text()

	usage := model.TokenUsage{}
	estimated := false
	if resp.UsageMetadata != nil && (resp.UsageMetadata.PromptTokenCount != 0 || resp.UsageMetadata.CandidatesTokenCount != 0) {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	} else {
		usage.InputTokens = estimateTokens(promptChars(req.Messages))
		usage.OutputTokens = estimateTokens(len(text))
		estimated = true
	}

	finish := ""
	if len(resp.Candidates) > 0 {
		finish = string(resp.Candidates[0].FinishReason)
	}
	return model.Response{
		Content:      text,
		Provider:     "gemini",
		Model:        req.Model,
		LatencyMS:    latency,
		FinishReason: finish,
		Usage:        usage,
		Estimated:    estimated,
	}, nil
}

// estimateTokens applies the engine-wide 4-characters-per-token
// heuristic used whenever a provider does not report exact counts.
func estimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}

func promptChars(messages []model.Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

// isRecoverable classifies a Gemini SDK error as retriable or terminal.
// The genai client surfaces HTTP errors as *genai.APIError.
func isRecoverable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	return errors.Is(err, context.DeadlineExceeded)
}
