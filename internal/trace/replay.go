package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

// ReplayMode selects how Replay reproduces a recorded run.
type ReplayMode string

const (
	// ReplayDry prints the recorded timeline without calling any
	// provider or tool (TraceReplay.replay's "dry" branch).
	ReplayDry ReplayMode = "dry"
	// ReplayFull re-executes the run for real, always against live
	// providers (TraceReplay._full_replay, which hard-codes use_llm=True).
	ReplayFull ReplayMode = "full"
)

// Replayer reads a previously written trace.json and reproduces its
// execution, mirroring original_source's TraceReplay. FULL mode is
// intentionally left to the caller (cmd/nexous): it must reconstruct a
// ProjectSpec from the Replayer's output and hand it back to a Runner,
// since internal/trace cannot import internal/runner without a cycle
// (runner already imports trace).
type Replayer struct {
	path string
	mode ReplayMode
	data *Trace
}

// NewReplayer constructs a Replayer for the trace file at path.
func NewReplayer(path string, mode ReplayMode) *Replayer {
	return &Replayer{path: path, mode: mode}
}

// Load reads and parses the trace file, mirroring TraceReplay.load_trace.
func (r *Replayer) Load() (*Trace, error) {
	if r.data != nil {
		return r.data, nil
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nexerr.New(nexerr.KindYAMLParse, fmt.Sprintf("trace file not found: %s", r.path), err)
		}
		return nil, nexerr.New(nexerr.KindYAMLParse, err.Error(), err)
	}
	var t Trace
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, nexerr.New(nexerr.KindYAMLParse, fmt.Sprintf("invalid trace JSON: %v", err), err)
	}
	r.data = &t
	return r.data, nil
}

// Validate checks the loaded trace carries the fields a replay depends
// on, mirroring TraceReplay.validate_trace's required_fields check.
func (r *Replayer) Validate() error {
	t, err := r.Load()
	if err != nil {
		return err
	}
	if t.SchemaVersion == "" {
		return nexerr.New(nexerr.KindSchemaValidation, "missing required field: schema_version", nil)
	}
	if t.ProjectID == "" {
		return nexerr.New(nexerr.KindSchemaValidation, "missing required field: project_id", nil)
	}
	if t.RunID == "" {
		return nexerr.New(nexerr.KindSchemaValidation, "missing required field: run_id", nil)
	}
	return nil
}

// AgentTimelineEntry summarizes one agent's recorded execution
// (TraceReplay.get_agent_timeline).
type AgentTimelineEntry struct {
	AgentID   string
	PresetID  string
	Status    AgentStatus
	StartedAt string
	EndedAt   string
	NumSteps  int
}

// Timeline returns one entry per recorded agent, in recorded order.
func (r *Replayer) Timeline() ([]AgentTimelineEntry, error) {
	t, err := r.Load()
	if err != nil {
		return nil, err
	}
	entries := make([]AgentTimelineEntry, 0, len(t.Agents))
	for _, a := range t.Agents {
		entries = append(entries, AgentTimelineEntry{
			AgentID:   a.AgentID,
			PresetID:  a.PresetID,
			Status:    a.Status,
			StartedAt: a.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			EndedAt:   a.EndedAt.Format("2006-01-02T15:04:05Z07:00"),
			NumSteps:  len(a.Steps),
		})
	}
	return entries, nil
}

// ReconstructedAgent is one agent config rebuilt from a trace's INPUT/
// OUTPUT steps, sufficient to drive a FULL replay
// (TraceReplay._full_replay's agent_config reconstruction).
type ReconstructedAgent struct {
	ID         string
	Preset     string
	Purpose    string
	InputKeys  []string
	OutputKeys []string
}

// ReconstructProject rebuilds a minimal project description from the
// trace's recorded agents, the way _full_replay rebuilds project_yaml
// before handing it to the Runner.
func (r *Replayer) ReconstructProject() (projectID string, agents []ReconstructedAgent, err error) {
	t, err := r.Load()
	if err != nil {
		return "", nil, err
	}
	agents = make([]ReconstructedAgent, 0, len(t.Agents))
	for _, a := range t.Agents {
		rec := ReconstructedAgent{ID: a.AgentID, Preset: a.PresetID, Purpose: a.Purpose}
		for _, step := range a.Steps {
			if step.Type == StepInput {
				if ctx, ok := step.Payload["context"]; ok {
					rec.InputKeys = toStringSlice(ctx)
				}
				break
			}
		}
		for _, step := range a.Steps {
			if step.Type == StepOutput {
				if keys, ok := step.Payload["output_keys"]; ok {
					rec.OutputKeys = toStringSlice(keys)
				}
				break
			}
		}
		agents = append(agents, rec)
	}
	return t.ProjectID, agents, nil
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Errors returns the trace's flat error list (TraceReplay.get_errors).
func (r *Replayer) Errors() ([]ErrorRecord, error) {
	t, err := r.Load()
	if err != nil {
		return nil, err
	}
	return t.Errors, nil
}
