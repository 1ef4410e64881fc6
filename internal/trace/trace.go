// Package trace implements the Trace Recorder (spec §4.1) and the Trace
// data model (spec §3). It is grounded on goa-ai's runtime/agent/runlog
// (an append-only event Store) and runtime/agent/run (the Status
// lifecycle enum), simplified from a durable multi-run event store down
// to the single-run, single-writer, JSON-at-the-end artefact the
// specification calls for.
package trace

import "time"

// RunStatus is the terminal or in-flight status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// AgentStatus is the lifecycle status of a single agent within a run.
type AgentStatus string

const (
	AgentStatusIdle      AgentStatus = "IDLE"
	AgentStatusRunning   AgentStatus = "RUNNING"
	AgentStatusCompleted AgentStatus = "COMPLETED"
	AgentStatusFailed    AgentStatus = "FAILED"
)

// StepType classifies a StepRecord.
type StepType string

const (
	StepInput  StepType = "INPUT"
	StepLLM    StepType = "LLM"
	StepTool   StepType = "TOOL"
	StepOutput StepType = "OUTPUT"
)

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	StepStatusOK    StepStatus = "OK"
	StepStatusError StepStatus = "ERROR"
)

// SchemaVersion is the fixed trace-schema version (spec §6).
const SchemaVersion = "1.0"

type (
	// StepRecord is one atomic observable event within an agent.
	StepRecord struct {
		StepID    string         `json:"step_id"`
		Type      StepType       `json:"type"`
		Status    StepStatus     `json:"status"`
		Timestamp time.Time      `json:"timestamp"`
		Payload   map[string]any `json:"payload,omitempty"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}

	// AgentTrace is the ordered record of one agent's execution.
	AgentTrace struct {
		AgentID   string       `json:"agent_id"`
		PresetID  string       `json:"preset_id"`
		Purpose   string       `json:"purpose"`
		Status    AgentStatus  `json:"status"`
		StartedAt time.Time    `json:"started_at"`
		EndedAt   time.Time    `json:"ended_at,omitzero"`
		Steps     []StepRecord `json:"steps"`

		nextOrdinal int
	}

	// ErrorRecord is a flat, run-scoped error entry.
	ErrorRecord struct {
		AgentID     string    `json:"agent_id"`
		StepID      string    `json:"step_id,omitempty"`
		Type        string    `json:"type"`
		Message     string    `json:"message"`
		Recoverable bool      `json:"recoverable"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// Artifact is a registered side-effect of a run (e.g. a file written
	// by the file_write tool).
	Artifact struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		Path      string `json:"path"`
		CreatedBy string `json:"created_by"`
	}

	// Summary aggregates counts derived from the AgentTrace/StepRecord
	// contents at end-of-run (spec §3 invariants).
	Summary struct {
		TotalAgents     int   `json:"total_agents"`
		CompletedAgents int   `json:"completed_agents"`
		FailedAgents    int   `json:"failed_agents"`
		TotalLLMCalls   int   `json:"total_llm_calls"`
		TotalToolCalls  int   `json:"total_tool_calls"`
		TotalTokens     int   `json:"total_tokens"`
		DurationMS      int64 `json:"duration_ms"`
	}

	// Trace is the complete, replayable record of one run.
	Trace struct {
		SchemaVersion string        `json:"schema_version"`
		ProjectID     string        `json:"project_id"`
		RunID         string        `json:"run_id"`
		Status        RunStatus     `json:"status"`
		StartedAt     time.Time     `json:"started_at"`
		EndedAt       time.Time     `json:"ended_at,omitzero"`
		DurationMS    int64         `json:"duration_ms"`
		ExecutionMode string        `json:"execution_mode"`
		Agents        []*AgentTrace `json:"agents"`
		Errors        []ErrorRecord `json:"errors"`
		Artifacts     []Artifact    `json:"artifacts,omitempty"`
		Summary       Summary       `json:"summary"`
	}
)
