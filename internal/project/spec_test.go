package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePolicy_PreferPolicyOverLegacy(t *testing.T) {
	p := PresetSpec{
		LLM: LLMConfig{
			Policy: &PolicySpec{Primary: "anthropic/claude-sonnet-4", Retry: 5, RetryDelay: 2.5, Fallback: []string{"openai/gpt-4o"}},
			LegacyLLM: LegacyLLM{Provider: "openai", Model: "gpt-4o-mini"},
		},
	}
	policy := p.ResolvePolicy()
	assert.Equal(t, "anthropic/claude-sonnet-4", policy.Primary)
	assert.Equal(t, 5, policy.Retry)
	assert.Equal(t, 2.5, policy.RetryDelay)
	assert.Equal(t, []string{"openai/gpt-4o"}, policy.Fallback)
}

func TestResolvePolicy_LegacyFormDefaults(t *testing.T) {
	p := PresetSpec{}
	policy := p.ResolvePolicy()
	assert.Equal(t, "openai/gpt-4o", policy.Primary)
	assert.Equal(t, 3, policy.Retry)
}

func TestResolvePolicy_LegacyFormExplicitOverrides(t *testing.T) {
	p := PresetSpec{
		LLM: LLMConfig{
			LegacyLLM: LegacyLLM{Provider: "gemini", Model: "gemini-2.5-pro", Retry: 1, RetryDelay: 0.5, Timeout: 10, Fallback: []string{"openai/gpt-4o"}},
		},
	}
	policy := p.ResolvePolicy()
	assert.Equal(t, "gemini/gemini-2.5-pro", policy.Primary)
	assert.Equal(t, 1, policy.Retry)
	assert.Equal(t, 0.5, policy.RetryDelay)
	assert.Equal(t, 10.0, policy.Timeout)
}

func TestTemperature_DefaultsWhenUnset(t *testing.T) {
	p := PresetSpec{}
	assert.Equal(t, 0.3, p.Temperature())

	p.LLM.Temperature = 0.9
	assert.Equal(t, 0.9, p.Temperature())
}

func TestMaxTokens_DefaultsWhenUnset(t *testing.T) {
	p := PresetSpec{}
	assert.Equal(t, 4096, p.MaxTokens())

	p.LLM.MaxTokens = 512
	assert.Equal(t, 512, p.MaxTokens())
}
