package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

// DiffFilter narrows Diff to a single dimension of the comparison,
// mirroring TraceDiff's `only` argument.
type DiffFilter string

const (
	DiffAll    DiffFilter = ""
	DiffLLM    DiffFilter = "llm"
	DiffTools  DiffFilter = "tools"
	DiffErrors DiffFilter = "errors"
)

// FieldDiff compares one scalar field between two traces.
type FieldDiff struct {
	Name   string
	First  any
	Second any
	Same   bool
}

// AgentDiff records one discrepancy between the two traces' agents,
// mirroring TraceDiff.compare_agents.
type AgentDiff struct {
	AgentID     string
	Kind        string // Compare: STATUS_DIFF, STEPS_COUNT_DIFF, MISSING_IN_FIRST, MISSING_IN_SECOND; FirstDivergence also AGENT_MISSING, AGENT_ID_DIFF, STEP_TYPE_DIFF, STEP_STATUS_DIFF
	FirstValue  string
	SecondValue string
}

// LLMCall is one LLM step extracted for comparison
// (TraceDiff.compare_llm_calls).
type LLMCall struct {
	AgentID   string
	StepID    string
	Provider  string
	Model     string
	LatencyMS int64
	Tokens    int
}

// ToolCall is one TOOL step extracted for comparison
// (TraceDiff.compare_tool_calls).
type ToolCall struct {
	AgentID string
	StepID  string
	Tool    string
	Status  StepStatus
}

// Diff is the full comparison result of two traces, mirroring what
// TraceDiff.diff() returns for the non-filtered, non-"first" case.
type Diff struct {
	Metadata []FieldDiff
	Agents   []AgentDiff
	Errors1  []ErrorRecord
	Errors2  []ErrorRecord
	Summary  []FieldDiff

	LLMCalls1, LLMCalls2   []LLMCall
	ToolCalls1, ToolCalls2 []ToolCall
}

// Differ compares two trace files, mirroring original_source's TraceDiff.
type Differ struct {
	path1, path2 string
	t1, t2       *Trace
}

// NewDiffer constructs a Differ for the two trace files at path1/path2.
func NewDiffer(path1, path2 string) *Differ {
	return &Differ{path1: path1, path2: path2}
}

func loadTraceFile(path string) (*Trace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nexerr.New(nexerr.KindYAMLParse, fmt.Sprintf("trace file not found: %s", path), err)
		}
		return nil, nexerr.New(nexerr.KindYAMLParse, err.Error(), err)
	}
	var t Trace
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, nexerr.New(nexerr.KindYAMLParse, fmt.Sprintf("invalid trace JSON: %v", err), err)
	}
	return &t, nil
}

// Load reads both trace files (TraceDiff.load_traces).
func (d *Differ) Load() error {
	if d.t1 != nil && d.t2 != nil {
		return nil
	}
	t1, err := loadTraceFile(d.path1)
	if err != nil {
		return err
	}
	t2, err := loadTraceFile(d.path2)
	if err != nil {
		return err
	}
	d.t1, d.t2 = t1, t2
	return nil
}

// Compare runs the full comparison, honoring filter for which sections
// to populate (empty sections are left nil when filter excludes them,
// matching the original's early-return `only` branches).
func (d *Differ) Compare(filter DiffFilter) (*Diff, error) {
	if err := d.Load(); err != nil {
		return nil, err
	}
	out := &Diff{}
	switch filter {
	case DiffLLM:
		out.LLMCalls1, out.LLMCalls2 = d.llmCalls(d.t1), d.llmCalls(d.t2)
	case DiffTools:
		out.ToolCalls1, out.ToolCalls2 = d.toolCalls(d.t1), d.toolCalls(d.t2)
	case DiffErrors:
		out.Errors1, out.Errors2 = d.t1.Errors, d.t2.Errors
	default:
		out.Metadata = d.metadataDiff()
		out.Agents = d.agentDiff()
		out.Errors1, out.Errors2 = d.t1.Errors, d.t2.Errors
		out.Summary = d.summaryDiff()
	}
	return out, nil
}

func (d *Differ) metadataDiff() []FieldDiff {
	return []FieldDiff{
		{Name: "project_id", First: d.t1.ProjectID, Second: d.t2.ProjectID, Same: d.t1.ProjectID == d.t2.ProjectID},
		{Name: "status", First: d.t1.Status, Second: d.t2.Status, Same: d.t1.Status == d.t2.Status},
		{Name: "duration_ms", First: d.t1.DurationMS, Second: d.t2.DurationMS, Same: d.t1.DurationMS == d.t2.DurationMS},
	}
}

func (d *Differ) summaryDiff() []FieldDiff {
	s1, s2 := d.t1.Summary, d.t2.Summary
	return []FieldDiff{
		{Name: "total_agents", First: s1.TotalAgents, Second: s2.TotalAgents, Same: s1.TotalAgents == s2.TotalAgents},
		{Name: "completed_agents", First: s1.CompletedAgents, Second: s2.CompletedAgents, Same: s1.CompletedAgents == s2.CompletedAgents},
		{Name: "failed_agents", First: s1.FailedAgents, Second: s2.FailedAgents, Same: s1.FailedAgents == s2.FailedAgents},
		{Name: "total_duration_ms", First: s1.DurationMS, Second: s2.DurationMS, Same: s1.DurationMS == s2.DurationMS},
	}
}

func (d *Differ) agentDiff() []AgentDiff {
	byID1 := make(map[string]*AgentTrace, len(d.t1.Agents))
	for _, a := range d.t1.Agents {
		byID1[a.AgentID] = a
	}
	byID2 := make(map[string]*AgentTrace, len(d.t2.Agents))
	for _, a := range d.t2.Agents {
		byID2[a.AgentID] = a
	}

	var diffs []AgentDiff
	for _, a1 := range d.t1.Agents {
		a2, ok := byID2[a1.AgentID]
		if !ok {
			diffs = append(diffs, AgentDiff{AgentID: a1.AgentID, Kind: "MISSING_IN_SECOND"})
			continue
		}
		if a1.Status != a2.Status {
			diffs = append(diffs, AgentDiff{AgentID: a1.AgentID, Kind: "STATUS_DIFF", FirstValue: string(a1.Status), SecondValue: string(a2.Status)})
		}
		if len(a1.Steps) != len(a2.Steps) {
			diffs = append(diffs, AgentDiff{AgentID: a1.AgentID, Kind: "STEPS_COUNT_DIFF",
				FirstValue: fmt.Sprintf("%d", len(a1.Steps)), SecondValue: fmt.Sprintf("%d", len(a2.Steps))})
		}
	}
	for _, a2 := range d.t2.Agents {
		if _, ok := byID1[a2.AgentID]; !ok {
			diffs = append(diffs, AgentDiff{AgentID: a2.AgentID, Kind: "MISSING_IN_FIRST"})
		}
	}
	return diffs
}

// FirstDivergence walks both traces' agents/steps in parallel and
// returns the first point they disagree, mirroring
// TraceDiff.find_first_divergence. Returns nil, nil when identical.
func (d *Differ) FirstDivergence() (*AgentDiff, error) {
	if err := d.Load(); err != nil {
		return nil, err
	}
	a1, a2 := d.t1.Agents, d.t2.Agents
	n := len(a1)
	if len(a2) > n {
		n = len(a2)
	}
	for i := 0; i < n; i++ {
		if i >= len(a1) {
			return &AgentDiff{AgentID: a2[i].AgentID, Kind: "AGENT_MISSING", SecondValue: a2[i].AgentID}, nil
		}
		if i >= len(a2) {
			return &AgentDiff{AgentID: a1[i].AgentID, Kind: "AGENT_MISSING", FirstValue: a1[i].AgentID}, nil
		}
		if a1[i].AgentID != a2[i].AgentID {
			return &AgentDiff{Kind: "AGENT_ID_DIFF", FirstValue: a1[i].AgentID, SecondValue: a2[i].AgentID}, nil
		}
		if a1[i].Status != a2[i].Status {
			return &AgentDiff{AgentID: a1[i].AgentID, Kind: "STATUS_DIFF", FirstValue: string(a1[i].Status), SecondValue: string(a2[i].Status)}, nil
		}
		steps1, steps2 := a1[i].Steps, a2[i].Steps
		if len(steps1) != len(steps2) {
			return &AgentDiff{AgentID: a1[i].AgentID, Kind: "STEPS_COUNT_DIFF",
				FirstValue: fmt.Sprintf("%d", len(steps1)), SecondValue: fmt.Sprintf("%d", len(steps2))}, nil
		}
		for j := range steps1 {
			if steps1[j].Type != steps2[j].Type {
				return &AgentDiff{AgentID: a1[i].AgentID, Kind: "STEP_TYPE_DIFF", FirstValue: string(steps1[j].Type), SecondValue: string(steps2[j].Type)}, nil
			}
			if steps1[j].Status != steps2[j].Status {
				return &AgentDiff{AgentID: a1[i].AgentID, Kind: "STEP_STATUS_DIFF", FirstValue: string(steps1[j].Status), SecondValue: string(steps2[j].Status)}, nil
			}
		}
	}
	return nil, nil
}

func (d *Differ) llmCalls(t *Trace) []LLMCall {
	var calls []LLMCall
	for _, a := range t.Agents {
		for _, step := range a.Steps {
			if step.Type != StepLLM {
				continue
			}
			call := LLMCall{AgentID: a.AgentID, StepID: step.StepID}
			if v, ok := step.Metadata["provider"].(string); ok {
				call.Provider = v
			}
			if v, ok := step.Metadata["model"].(string); ok {
				call.Model = v
			}
			if v, ok := step.Metadata["latency_ms"]; ok {
				call.LatencyMS = toInt64(v)
			}
			tokensIn := toInt64(step.Metadata["tokens_input"])
			tokensOut := toInt64(step.Metadata["tokens_output"])
			call.Tokens = int(tokensIn + tokensOut)
			calls = append(calls, call)
		}
	}
	return calls
}

func (d *Differ) toolCalls(t *Trace) []ToolCall {
	var calls []ToolCall
	for _, a := range t.Agents {
		for _, step := range a.Steps {
			if step.Type != StepTool {
				continue
			}
			call := ToolCall{AgentID: a.AgentID, StepID: step.StepID, Status: step.Status}
			if v, ok := step.Payload["tool_name"].(string); ok {
				call.Tool = v
			}
			calls = append(calls, call)
		}
	}
	return calls
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
