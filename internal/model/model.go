// Package model defines the provider-agnostic request/response types
// shared by the Router, the Agent, and every Provider Adapter. Unlike
// its teacher (runtime/agent/model, which models messages as typed
// multimodal parts), the engine's wire contract is the flat
// role/content string pair the specification names — there is no
// multimodal, citation, or thinking-part surface to support here.
package model

import "context"

// ConversationRole identifies the speaker of a Message.
type ConversationRole string

const (
	RoleSystem    ConversationRole = "system"
	RoleUser      ConversationRole = "user"
	RoleAssistant ConversationRole = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    ConversationRole
	Content string
}

// TokenUsage tracks token counts for a single call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Request captures the inputs to a single provider call. Temperature and
// MaxTokens come from the Agent's LLM config, never from the Policy
// (spec §4.3 edge cases).
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Timeout     float64 // seconds
}

// Response is the result of a successful provider call. Attempt and
// FallbackFrom are stamped by the Router, not by the adapter.
type Response struct {
	Content      string
	Provider     string
	Model        string
	Usage        TokenUsage
	LatencyMS    int64
	FinishReason string
	Attempt      int
	FallbackFrom string
	Estimated    bool // true when token counts are heuristic, not provider-reported
}

// Client is the uniform call surface every Provider Adapter implements
// (spec §4.2).
type Client interface {
	// ProviderName returns the constant provider identifier (e.g. "openai").
	ProviderName() string

	// IsAvailable reports whether credentials and dependencies required to
	// call this provider are present in the current environment.
	IsAvailable() bool

	// Generate performs one model invocation.
	Generate(ctx context.Context, req Request) (Response, error)
}
