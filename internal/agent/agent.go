// Package agent implements the Agent (spec §4.4): compose a prompt
// from an AgentSpec/PresetSpec pair, call the Router, optionally
// validate JSON output, optionally execute python_exec tool calls
// extracted from the response, and return a Result. Grounded directly
// on original_source/nexous/core/generic_agent.py's GenericAgent.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/nexous-ai/nexous/internal/model"
	"github.com/nexous-ai/nexous/internal/nexerr"
	"github.com/nexous-ai/nexous/internal/project"
	"github.com/nexous-ai/nexous/internal/provider"
	"github.com/nexous-ai/nexous/internal/router"
	"github.com/nexous-ai/nexous/internal/telemetry"
	"github.com/nexous-ai/nexous/internal/tools"
	"github.com/nexous-ai/nexous/internal/trace"
)

// codeBlockPattern extracts fenced python/python_exec/py code blocks,
// mirroring GenericAgent._extract_code_blocks.
var codeBlockPattern = regexp.MustCompile(`(?is)` + "```" + `(?:python_exec|python|py)\s*(.*?)` + "```")

// ExecContext is the per-invocation context the Runner supplies,
// mirroring the "context" dict built in Runner._execute_agent.
type ExecContext struct {
	Project         *project.ProjectSpec
	PreviousResults map[string]Result
	Inputs          map[string]any
}

// ToolCallResult records one executed tool invocation.
type ToolCallResult struct {
	Tool     string
	OK       bool
	Output   string
	Error    string
	Metadata map[string]any
}

// RoutingInfo surfaces the Router's decision trail, mirroring
// GenericAgent's "routing_info" result field.
type RoutingInfo struct {
	Attempt      int
	FallbackFrom string
	Attempts     []router.Attempt
}

// Result is what an Agent's Execute returns, mirroring GenericAgent's
// result dict.
type Result struct {
	Status          string
	AgentID         string
	Role            string
	Purpose         string
	LLMResponse     string
	ValidatedOutput map[string]any
	Usage           model.TokenUsage
	LatencyMS       int64
	Model           string
	Provider        string
	ToolResults     []ToolCallResult
	Routing         RoutingInfo
	ArtifactIDs     []string
}

// Agent is one executable unit: an AgentSpec bound to a resolved Preset.
type Agent struct {
	AgentID string
	Preset  project.PresetSpec
	Purpose string
	Config  project.AgentSpec

	providerRegistry *provider.Registry
	toolRegistry     *tools.Registry
	recorder         *trace.Recorder
	tel              telemetry.Telemetry
	useLLM           bool

	availableTools []string
}

// New constructs an Agent, filtering the Preset's tool names down to
// those the toolRegistry actually allows (GenericAgent._resolve_tools).
// useLLM selects between the real LLM-calling path and the
// PresetAgent placeholder path (spec §4.7; original_source's
// AgentFactory.create branches the same way on self.use_llm).
func New(agentID string, preset project.PresetSpec, cfg project.AgentSpec, providerRegistry *provider.Registry, toolRegistry *tools.Registry, recorder *trace.Recorder, tel telemetry.Telemetry, useLLM bool) *Agent {
	var available []string
	for _, name := range preset.Tools {
		if toolRegistry.IsAvailable(name) {
			available = append(available, name)
		}
	}
	return &Agent{
		AgentID:          agentID,
		Preset:           preset,
		Purpose:          cfg.Purpose,
		Config:           cfg,
		providerRegistry: providerRegistry,
		toolRegistry:     toolRegistry,
		recorder:         recorder,
		tel:              tel,
		useLLM:           useLLM,
		availableTools:   available,
	}
}

// Execute runs the Agent. When useLLM is false it never calls the
// Router and returns a deterministic stub result instead, mirroring
// base_agent.py's PresetAgent.execute — the sole mode difference the
// Runner (and this engine's default, use_llm=false) relies on.
// Otherwise it composes → routes → validates → executes tools.
func (a *Agent) Execute(ctx context.Context, execCtx ExecContext) (Result, error) {
	if !a.useLLM {
		return a.executePlaceholder(), nil
	}

	var span telemetry.Span
	if a.tel.Tracer != nil {
		ctx, span = a.tel.Tracer.Start(ctx, "agent.execute")
		defer span.End()
	}

	policy := a.Preset.ResolvePolicy()
	r := router.New(policy, a.providerRegistry, a.recorder, a.AgentID, a.tel)

	messages := a.buildMessages(execCtx)
	resp, err := r.Route(ctx, messages, a.Preset.Temperature(), a.Preset.MaxTokens())
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return Result{}, err
	}

	validated := a.validateOutput(resp.Content)
	a.checkRequiredFields(ctx, validated)

	var toolResults []ToolCallResult
	if len(a.availableTools) > 0 && hasCodeBlocks(resp.Content) {
		toolResults = a.executeTools(ctx, resp.Content)
	}

	if a.tel.Metrics != nil {
		a.tel.Metrics.IncCounter("agent_executions_total", 1, "agent_id", a.AgentID)
		a.tel.Metrics.RecordTimer("agent_execution_latency", time.Duration(resp.LatencyMS)*time.Millisecond, "agent_id", a.AgentID)
	}

	attempts := r.Attempts()
	return Result{
		Status:          "success",
		AgentID:         a.AgentID,
		Role:            a.Preset.Role,
		Purpose:         a.Purpose,
		LLMResponse:     resp.Content,
		ValidatedOutput: validated,
		Usage:           resp.Usage,
		LatencyMS:       resp.LatencyMS,
		Model:           resp.Model,
		Provider:        resp.Provider,
		ToolResults:     toolResults,
		Routing: RoutingInfo{
			Attempt:      resp.Attempt,
			FallbackFrom: resp.FallbackFrom,
			Attempts:     attempts,
		},
	}, nil
}

// executePlaceholder is the LEVEL 1 path: no Router call, a
// deterministic success result describing what *would* have been
// called. Mirrors PresetAgent.execute exactly, including its message
// text.
func (a *Agent) executePlaceholder() Result {
	if a.tel.Logger != nil {
		a.tel.Logger.Info(context.Background(), "placeholder agent executing", "agent_id", a.AgentID, "role", a.Preset.Role)
	}
	providerName, modelName := "", ""
	if p, m, err := router.ProviderModel(a.Preset.ResolvePolicy().Primary); err == nil {
		providerName, modelName = p, m
	}
	return Result{
		Status:      "success",
		AgentID:     a.AgentID,
		Role:        a.Preset.Role,
		Purpose:     a.Purpose,
		LLMResponse: fmt.Sprintf("PresetAgent '%s' executed successfully", a.AgentID),
		Provider:    providerName,
		Model:       modelName,
	}
}

// buildMessages composes the system+user messages, mirroring
// GenericAgent._build_messages/_build_user_content.
func (a *Agent) buildMessages(execCtx ExecContext) []model.Message {
	var messages []model.Message

	system := a.Preset.SystemPrompt
	if len(a.availableTools) > 0 {
		system += fmt.Sprintf("\n\nAvailable tools: %v", a.availableTools)
		system += "\n\nImportant: Python code must start with ```python."
	}
	if a.Preset.OutputPolicy != nil && a.Preset.OutputPolicy.Format == "json" {
		system += "\n\nImportant: respond with valid JSON only."
	}
	if system != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: system})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Purpose\n%s", a.Purpose)
	if len(execCtx.Inputs) > 0 {
		if data, err := json.MarshalIndent(execCtx.Inputs, "", "  "); err == nil {
			fmt.Fprintf(&b, "\n\n## Input data\n```json\n%s\n```", string(data))
		}
	}
	if len(execCtx.PreviousResults) > 0 {
		ids := make([]string, 0, len(execCtx.PreviousResults))
		for id := range execCtx.PreviousResults {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprintf(&b, "\n\n## Completed upstream agents\n%v", ids)
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: b.String()})
	return messages
}

// validateOutput extracts and parses a ```json fenced block (or the
// whole response) when the preset demands JSON output, mirroring
// GenericAgent._validate_output. Invalid JSON yields nil, not an
// error: the spec explicitly never validates LLM output semantics
// beyond presence-of-fields, and required_fields is checked separately
// by checkRequiredFields.
func (a *Agent) validateOutput(content string) map[string]any {
	if a.Preset.OutputPolicy == nil || a.Preset.OutputPolicy.Format != "json" {
		return nil
	}
	jsonStr := content
	if m := jsonBlockPattern.FindStringSubmatch(content); m != nil {
		jsonStr = m[1]
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonStr)), &parsed); err != nil {
		return nil
	}
	return parsed
}

// checkRequiredFields warns (never fails) when a parsed JSON output is
// missing any of OutputPolicy.RequiredFields, mirroring
// generic_agent.py's permissive required_fields check: a missing field
// is surfaced to the operator, not treated as a terminal error.
func (a *Agent) checkRequiredFields(ctx context.Context, parsed map[string]any) {
	if a.Preset.OutputPolicy == nil || len(a.Preset.OutputPolicy.RequiredFields) == 0 {
		return
	}
	var missing []string
	for _, field := range a.Preset.OutputPolicy.RequiredFields {
		if parsed == nil {
			missing = append(missing, field)
			continue
		}
		if _, ok := parsed[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return
	}
	if a.tel.Logger != nil {
		a.tel.Logger.Warn(ctx, "agent output missing required fields", "agent_id", a.AgentID, "missing_fields", missing)
	}
	if a.recorder != nil {
		a.recorder.LogStep(a.AgentID, trace.StepOutput, trace.StepStatusOK, map[string]any{
			"warning":        "required_fields missing from output",
			"missing_fields": missing,
		}, nil)
	}
}

var jsonBlockPattern = regexp.MustCompile(`(?is)` + "```" + `json\s*(.*?)` + "```")

func hasCodeBlocks(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "```python") || strings.Contains(lower, "```py")
}

// executeTools runs every extracted python code block through
// python_exec, logging a TOOL step per call (GenericAgent._execute_tools).
func (a *Agent) executeTools(ctx context.Context, content string) []ToolCallResult {
	hasPythonExec := false
	for _, t := range a.availableTools {
		if t == "python_exec" {
			hasPythonExec = true
		}
	}
	if !hasPythonExec {
		return nil
	}

	blocks := extractCodeBlocks(content)
	if len(blocks) == 0 {
		return nil
	}

	tool, err := a.toolRegistry.Get("python_exec")
	if err != nil {
		return []ToolCallResult{{Tool: "python_exec", OK: false, Error: err.Error()}}
	}

	results := make([]ToolCallResult, 0, len(blocks))
	for _, code := range blocks {
		res := tool.Run(ctx, map[string]any{"code": code})
		if a.recorder != nil {
			status := trace.StepStatusOK
			if !res.OK {
				status = trace.StepStatusError
			}
			a.recorder.LogStep(a.AgentID, trace.StepTool, status, map[string]any{
				"tool_name":      "python_exec",
				"input_summary":  truncate(code, 100),
				"output_summary": truncate(res.Output, 200),
			}, res.Metadata)
		}
		results = append(results, ToolCallResult{Tool: "python_exec", OK: res.OK, Output: res.Output, Error: res.Error, Metadata: res.Metadata})
	}
	return results
}

func extractCodeBlocks(content string) []string {
	matches := codeBlockPattern.FindAllStringSubmatch(content, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		code := strings.TrimSpace(m[1])
		if code != "" {
			blocks = append(blocks, code)
		}
	}
	return blocks
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// WrapAgentError classifies an execution failure into the AGENT_ERROR
// kind the Runner records, matching Runner._execute_agent's except
// clause. Router failures (already nexerr-typed) pass through unwrapped.
func WrapAgentError(agentID string, err error) error {
	if _, ok := nexerr.As(err); ok {
		return err
	}
	return nexerr.New(nexerr.KindAgentError, err.Error(), err).WithAgent(agentID)
}
