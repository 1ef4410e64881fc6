package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

// writeSampleTrace builds a small, realistic trace.json via the Recorder
// and returns its path, so Replayer/Differ tests exercise real output
// rather than a hand-authored fixture.
func writeSampleTrace(t *testing.T, dir, projectID, runID string) string {
	t.Helper()
	r := NewRecorder(dir, newFakeClock())
	require.NoError(t, r.StartRun(projectID, runID, "sequential"))
	require.NoError(t, r.StartAgent("fetch", "fetcher", "gather input"))
	r.LogStep("fetch", StepInput, StepStatusOK, map[string]any{"context": []string{"project_context"}}, nil)
	r.LogStep("fetch", StepLLM, StepStatusOK, map[string]any{"input_summary": "call", "output_summary": "done"},
		map[string]any{"provider": "openai", "model": "gpt-4o", "tokens_input": 100, "tokens_output": 50, "latency_ms": int64(820)})
	r.LogStep("fetch", StepOutput, StepStatusOK, map[string]any{"output_keys": []string{"status", "llm_response"}}, nil)
	r.EndAgent("fetch", AgentStatusCompleted)
	require.NoError(t, r.EndRun(RunStatusCompleted))
	return CanonicalPath(dir, projectID, runID)
}

func TestReplayer_ValidateAcceptsWellFormedTrace(t *testing.T) {
	path := writeSampleTrace(t, t.TempDir(), "demo", "run1")
	replayer := NewReplayer(path, ReplayDry)
	assert.NoError(t, replayer.Validate())
}

func TestReplayer_ValidateRejectsMissingFile(t *testing.T) {
	replayer := NewReplayer(filepath.Join(t.TempDir(), "nope.json"), ReplayDry)
	err := replayer.Validate()
	require.Error(t, err)
	ne, ok := nexerr.As(err)
	require.True(t, ok)
	assert.Equal(t, nexerr.KindYAMLParse, ne.Kind)
}

func TestReplayer_ValidateRejectsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":"1.0","project_id":"","run_id":""}`), 0o644))

	replayer := NewReplayer(path, ReplayDry)
	err := replayer.Validate()
	require.Error(t, err)
	ne, _ := nexerr.As(err)
	assert.Equal(t, nexerr.KindSchemaValidation, ne.Kind)
}

func TestReplayer_Timeline(t *testing.T) {
	path := writeSampleTrace(t, t.TempDir(), "demo", "run1")
	replayer := NewReplayer(path, ReplayDry)

	timeline, err := replayer.Timeline()
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, "fetch", timeline[0].AgentID)
	assert.Equal(t, "fetcher", timeline[0].PresetID)
	assert.Equal(t, AgentStatusCompleted, timeline[0].Status)
	assert.Equal(t, 3, timeline[0].NumSteps)
}

func TestReplayer_ReconstructProject(t *testing.T) {
	path := writeSampleTrace(t, t.TempDir(), "demo", "run1")
	replayer := NewReplayer(path, ReplayFull)

	projectID, agents, err := replayer.ReconstructProject()
	require.NoError(t, err)
	assert.Equal(t, "demo", projectID)
	require.Len(t, agents, 1)
	assert.Equal(t, "fetch", agents[0].ID)
	assert.Equal(t, "fetcher", agents[0].Preset)
	assert.Equal(t, []string{"project_context"}, agents[0].InputKeys)
	assert.Equal(t, []string{"status", "llm_response"}, agents[0].OutputKeys)
}

func TestReplayer_Errors(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, newFakeClock())
	require.NoError(t, r.StartRun("demo", "run1", "sequential"))
	r.LogError("fetch", "fetch.1.LLM", "LLM_ALL_FAILED", "every provider failed", false)
	require.NoError(t, r.EndRun(RunStatusFailed))

	replayer := NewReplayer(CanonicalPath(dir, "demo", "run1"), ReplayDry)
	errs, err := replayer.Errors()
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "LLM_ALL_FAILED", errs[0].Type)
}

func TestToStringSlice_HandlesJSONDecodedAnySlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toStringSlice([]any{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, toStringSlice([]string{"a", "b"}))
	assert.Nil(t, toStringSlice(42))
}
