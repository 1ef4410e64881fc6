package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nexous-ai/nexous/internal/telemetry"
)

// Clock abstracts wall-clock time so tests can control timestamps and
// durations deterministically. Production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Recorder is the single-writer append log for one run (spec §4.1). It
// is not safe for concurrent use by design: the Runner drives agents
// sequentially and is the Recorder's sole caller within a run (spec §5).
type Recorder struct {
	clock Clock
	root  string
	tel   telemetry.Telemetry

	trace   *Trace
	started bool

	byAgent map[string]*AgentTrace
	running map[string]bool
}

// NewRecorder constructs a Recorder that will write its final trace.json
// under <root>/<project-id>/<run-id>/trace.json.
func NewRecorder(root string, clock Clock) *Recorder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Recorder{
		clock:   clock,
		root:    root,
		byAgent: make(map[string]*AgentTrace),
		running: make(map[string]bool),
	}
}

// StartRun initialises the Trace. Calling it twice is a programmer error
// and returns a non-nil error rather than panicking, since the Runner
// always checks it.
func (r *Recorder) StartRun(projectID, runID, executionMode string) error {
	if r.started {
		return fmt.Errorf("trace: run already started")
	}
	r.started = true
	r.trace = &Trace{
		SchemaVersion: SchemaVersion,
		ProjectID:     projectID,
		RunID:         runID,
		Status:        RunStatusRunning,
		StartedAt:     r.clock.Now(),
		ExecutionMode: executionMode,
		Agents:        []*AgentTrace{},
		Errors:        []ErrorRecord{},
	}
	return nil
}

// SetTelemetry attaches the Logger/Metrics bundle EndRun reports
// through. Optional: the zero value (telemetry.Telemetry{}) is safe,
// every call site nil-checks before use.
func (r *Recorder) SetTelemetry(tel telemetry.Telemetry) { r.tel = tel }

// Trace returns the in-progress or finalised trace. Callers must not
// mutate the returned value; it is provided for read-only inspection
// (e.g. by the Runner when deciding whether a minimal trace already
// exists).
func (r *Recorder) Trace() *Trace { return r.trace }

// StartAgent appends a new AgentTrace with status RUNNING.
func (r *Recorder) StartAgent(agentID, presetID, purpose string) error {
	r.ensureStarted()
	if r.running[agentID] {
		return fmt.Errorf("trace: agent %q is already running", agentID)
	}
	at := &AgentTrace{
		AgentID:   agentID,
		PresetID:  presetID,
		Purpose:   purpose,
		Status:    AgentStatusRunning,
		StartedAt: r.clock.Now(),
		Steps:     []StepRecord{},
	}
	r.trace.Agents = append(r.trace.Agents, at)
	r.byAgent[agentID] = at
	r.running[agentID] = true
	return nil
}

// LogStep appends a StepRecord under the currently running AgentTrace
// identified by agentID. The step id is derived as
// "<agent-id>.<ordinal>.<type>" with a per-agent monotonic ordinal.
func (r *Recorder) LogStep(agentID string, typ StepType, status StepStatus, payload, metadata map[string]any) StepRecord {
	at := r.byAgent[agentID]
	if at == nil {
		// Defensive: callers are expected to have started the agent first,
		// but LogStep must remain total per spec §4.1 and never raise on
		// well-formed input. Synthesize a placeholder AgentTrace so the step
		// still lands somewhere observable.
		at = &AgentTrace{AgentID: agentID, Status: AgentStatusRunning, StartedAt: r.clock.Now(), Steps: []StepRecord{}}
		r.trace.Agents = append(r.trace.Agents, at)
		r.byAgent[agentID] = at
	}
	at.nextOrdinal++
	step := StepRecord{
		StepID:    fmt.Sprintf("%s.%d.%s", agentID, at.nextOrdinal, typ),
		Type:      typ,
		Status:    status,
		Timestamp: r.clock.Now(),
		Payload:   payload,
		Metadata:  metadata,
	}
	at.Steps = append(at.Steps, step)
	return step
}

// RegisterArtifact appends to the run's artefact list.
func (r *Recorder) RegisterArtifact(id, kind, path, createdBy string) {
	r.ensureStarted()
	r.trace.Artifacts = append(r.trace.Artifacts, Artifact{ID: id, Kind: kind, Path: path, CreatedBy: createdBy})
}

// LogError appends to the flat error list. It never changes any status;
// callers must pair it with EndAgent/EndRun to make a failure terminal.
func (r *Recorder) LogError(agentID, stepID string, kind string, message string, recoverable bool) {
	r.ensureStarted()
	r.trace.Errors = append(r.trace.Errors, ErrorRecord{
		AgentID:     agentID,
		StepID:      stepID,
		Type:        kind,
		Message:     message,
		Recoverable: recoverable,
		Timestamp:   r.clock.Now(),
	})
}

// EndAgent closes the AgentTrace, setting its end timestamp and status.
func (r *Recorder) EndAgent(agentID string, status AgentStatus) {
	at := r.byAgent[agentID]
	if at == nil {
		return
	}
	at.Status = status
	at.EndedAt = r.clock.Now()
	delete(r.running, agentID)
}

// EndRun computes the Summary, sets the end timestamp/duration, and
// serialises the Trace as pretty-printed JSON to the canonical path,
// creating parent directories as needed. This is the only method that
// performs I/O.
func (r *Recorder) EndRun(status RunStatus) error {
	r.ensureStarted()
	r.trace.Status = status
	r.trace.EndedAt = r.clock.Now()
	r.trace.DurationMS = r.trace.EndedAt.Sub(r.trace.StartedAt).Milliseconds()
	r.trace.Summary = computeSummary(r.trace)

	dir := filepath.Join(r.root, r.trace.ProjectID, r.trace.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("trace: create directory %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(r.trace, "", "  ")
	if err != nil {
		return fmt.Errorf("trace: marshal trace: %w", err)
	}
	path := filepath.Join(dir, "trace.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("trace: write %s: %w", path, err)
	}

	if r.tel.Logger != nil {
		r.tel.Logger.Info(context.Background(), "run finished",
			"project_id", r.trace.ProjectID, "run_id", r.trace.RunID,
			"status", string(status), "duration_ms", r.trace.DurationMS,
			"completed_agents", r.trace.Summary.CompletedAgents,
			"failed_agents", r.trace.Summary.FailedAgents)
	}
	if r.tel.Metrics != nil {
		r.tel.Metrics.IncCounter("runs_total", 1, "status", string(status))
		r.tel.Metrics.RecordTimer("run_duration", time.Duration(r.trace.DurationMS)*time.Millisecond, "status", string(status))
	}
	return nil
}

// CanonicalPath returns the path EndRun will write to (or has written
// to) for the given trace root/project/run.
func CanonicalPath(root, projectID, runID string) string {
	return filepath.Join(root, projectID, runID, "trace.json")
}

func (r *Recorder) ensureStarted() {
	if !r.started {
		// Defensive fallback so a Runner bug can never panic the process;
		// a run with no explicit StartRun still produces a structurally
		// valid trace.
		_ = r.StartRun("unknown", "unknown", "sequential")
	}
}

func computeSummary(t *Trace) Summary {
	s := Summary{DurationMS: t.DurationMS, TotalAgents: len(t.Agents)}
	for _, at := range t.Agents {
		switch at.Status {
		case AgentStatusCompleted:
			s.CompletedAgents++
		case AgentStatusFailed:
			s.FailedAgents++
		}
		for _, step := range at.Steps {
			switch {
			case step.Type == StepLLM && step.Status == StepStatusOK:
				s.TotalLLMCalls++
				s.TotalTokens += intFromMetadata(step.Metadata, "tokens_input")
				s.TotalTokens += intFromMetadata(step.Metadata, "tokens_output")
			case step.Type == StepTool:
				s.TotalToolCalls++
			}
		}
	}
	return s
}

func intFromMetadata(meta map[string]any, key string) int {
	v, ok := meta[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
