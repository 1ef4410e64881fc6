// Package project implements ProjectSpec/PresetSpec loading (spec
// §4.6 / §6), grounded on original_source/nexous/core/preset_loader.py
// and the project-file validation embedded in
// original_source/nexous/core/runner.py's _load_project.
package project

import "github.com/nexous-ai/nexous/internal/router"

// AgentSpec is one agent entry in a ProjectSpec's agents list.
type AgentSpec struct {
	ID           string         `yaml:"id" json:"id"`
	Preset       string         `yaml:"preset" json:"preset"`
	Purpose      string         `yaml:"purpose" json:"purpose"`
	Inputs       map[string]any `yaml:"inputs" json:"inputs"`
	Dependencies []string       `yaml:"dependencies" json:"dependencies"`
}

// Execution holds the project-wide execution settings.
type Execution struct {
	Mode string `yaml:"mode" json:"mode"`
}

// ProjectSpec is the immutable, per-run input loaded from a project
// YAML file (spec §3).
type ProjectSpec struct {
	ProjectID string      `yaml:"project_id" json:"project_id"`
	Execution Execution   `yaml:"execution" json:"execution"`
	Agents    []AgentSpec `yaml:"agents" json:"agents"`
}

// OutputPolicy declares the output contract an Agent must satisfy.
type OutputPolicy struct {
	Format         string   `yaml:"format" json:"format"`
	RequiredFields []string `yaml:"required_fields" json:"required_fields"`
}

// LegacyLLM is the pre-Policy "llm.provider/llm.model" shorthand a
// PresetSpec may use instead of llm.policy (spec §6, "OR legacy").
type LegacyLLM struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model" json:"model"`
	Retry       int     `yaml:"retry" json:"retry"`
	RetryDelay  float64 `yaml:"retry_delay" json:"retry_delay"`
	Fallback    []string `yaml:"fallback" json:"fallback"`
	Timeout     float64 `yaml:"timeout" json:"timeout"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
}

// LLMConfig is the raw "llm:" block of a preset file, supporting both
// the preferred llm.policy form and the legacy provider/model form.
type LLMConfig struct {
	Policy      *PolicySpec `yaml:"policy" json:"policy"`
	LegacyLLM   `yaml:",inline"`
}

// PolicySpec is the YAML shape of an LLM Router Policy.
type PolicySpec struct {
	Primary    string   `yaml:"primary" json:"primary"`
	Retry      int      `yaml:"retry" json:"retry"`
	RetryDelay float64  `yaml:"retry_delay" json:"retry_delay"`
	Fallback   []string `yaml:"fallback" json:"fallback"`
	Timeout    float64  `yaml:"timeout" json:"timeout"`
}

// PresetSpec is the immutable, reusable agent configuration loaded
// from a preset file (spec §3).
type PresetSpec struct {
	ID           string        `yaml:"id" json:"id"`
	Role         string        `yaml:"role" json:"role"`
	SystemPrompt string        `yaml:"system_prompt" json:"system_prompt"`
	Tools        []string      `yaml:"tools" json:"tools"`
	LLM          LLMConfig     `yaml:"llm" json:"llm"`
	OutputPolicy *OutputPolicy `yaml:"output_policy" json:"output_policy"`
}

// ResolvePolicy derives a router.Policy from whichever LLM config form
// the preset used, mirroring GenericAgent._create_llm_policy.
func (p PresetSpec) ResolvePolicy() router.Policy {
	if p.LLM.Policy != nil {
		ps := p.LLM.Policy
		policy := router.DefaultPolicy(ps.Primary)
		if ps.Retry > 0 {
			policy.Retry = ps.Retry
		}
		if ps.RetryDelay > 0 {
			policy.RetryDelay = ps.RetryDelay
		}
		if ps.Timeout > 0 {
			policy.Timeout = ps.Timeout
		}
		policy.Fallback = ps.Fallback
		return policy
	}

	provider := p.LLM.Provider
	if provider == "" {
		provider = "openai"
	}
	model := p.LLM.Model
	if model == "" {
		model = "gpt-4o"
	}
	policy := router.DefaultPolicy(provider + "/" + model)
	if p.LLM.Retry > 0 {
		policy.Retry = p.LLM.Retry
	}
	if p.LLM.RetryDelay > 0 {
		policy.RetryDelay = p.LLM.RetryDelay
	}
	if p.LLM.Timeout > 0 {
		policy.Timeout = p.LLM.Timeout
	}
	policy.Fallback = p.LLM.Fallback
	return policy
}

// Temperature returns the preset's configured sampling temperature,
// defaulting to 0.3 as the original does.
func (p PresetSpec) Temperature() float64 {
	if p.LLM.Temperature > 0 {
		return p.LLM.Temperature
	}
	return 0.3
}

// MaxTokens returns the preset's configured completion cap, defaulting
// to 4096 as the original does.
func (p PresetSpec) MaxTokens() int {
	if p.LLM.MaxTokens > 0 {
		return p.LLM.MaxTokens
	}
	return 4096
}
