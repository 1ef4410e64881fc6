package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by one second on every call, giving deterministic,
// strictly increasing timestamps without sleeping real time.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)}
}

func TestRecorder_StartRunTwiceErrors(t *testing.T) {
	r := NewRecorder(t.TempDir(), newFakeClock())
	require.NoError(t, r.StartRun("proj", "run1", "sequential"))
	assert.Error(t, r.StartRun("proj", "run1", "sequential"))
}

func TestRecorder_StartAgentTwiceErrors(t *testing.T) {
	r := NewRecorder(t.TempDir(), newFakeClock())
	require.NoError(t, r.StartRun("proj", "run1", "sequential"))
	require.NoError(t, r.StartAgent("a", "preset", "purpose"))
	assert.Error(t, r.StartAgent("a", "preset", "purpose"))
}

func TestRecorder_LogStepOrdinalsAreMonotonicPerAgent(t *testing.T) {
	r := NewRecorder(t.TempDir(), newFakeClock())
	require.NoError(t, r.StartRun("proj", "run1", "sequential"))
	require.NoError(t, r.StartAgent("a", "preset", "p"))

	s1 := r.LogStep("a", StepInput, StepStatusOK, nil, nil)
	s2 := r.LogStep("a", StepLLM, StepStatusOK, nil, nil)
	assert.Equal(t, "a.1.INPUT", s1.StepID)
	assert.Equal(t, "a.2.LLM", s2.StepID)
}

func TestRecorder_LogStepWithoutStartAgentSynthesizesAgentTrace(t *testing.T) {
	r := NewRecorder(t.TempDir(), newFakeClock())
	require.NoError(t, r.StartRun("proj", "run1", "sequential"))

	step := r.LogStep("ghost", StepTool, StepStatusOK, nil, nil)
	assert.Equal(t, "ghost.1.TOOL", step.StepID)
	assert.Len(t, r.Trace().Agents, 1)
}

func TestRecorder_EndRunWritesCanonicalTraceJSON(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, newFakeClock())
	require.NoError(t, r.StartRun("proj", "run1", "sequential"))
	require.NoError(t, r.StartAgent("a", "preset", "p"))
	r.LogStep("a", StepLLM, StepStatusOK, nil, map[string]any{"tokens_input": 10, "tokens_output": 20})
	r.EndAgent("a", AgentStatusCompleted)

	require.NoError(t, r.EndRun(RunStatusCompleted))

	path := CanonicalPath(dir, "proj", "run1")
	assert.Equal(t, filepath.Join(dir, "proj", "run1", "trace.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk Trace
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, RunStatusCompleted, onDisk.Status)
	assert.Equal(t, SchemaVersion, onDisk.SchemaVersion)
	assert.Equal(t, 1, onDisk.Summary.TotalAgents)
	assert.Equal(t, 1, onDisk.Summary.CompletedAgents)
	assert.Equal(t, 1, onDisk.Summary.TotalLLMCalls)
	assert.Equal(t, 30, onDisk.Summary.TotalTokens)
}

func TestRecorder_SummaryCountsFailedAgentsAndToolCalls(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, newFakeClock())
	require.NoError(t, r.StartRun("proj", "run1", "sequential"))

	require.NoError(t, r.StartAgent("ok-agent", "p", "x"))
	r.LogStep("ok-agent", StepTool, StepStatusOK, nil, nil)
	r.EndAgent("ok-agent", AgentStatusCompleted)

	require.NoError(t, r.StartAgent("bad-agent", "p", "x"))
	r.LogError("bad-agent", "bad-agent.1.LLM", "LLM_ALL_FAILED", "all providers down", false)
	r.EndAgent("bad-agent", AgentStatusFailed)

	require.NoError(t, r.EndRun(RunStatusFailed))

	summary := r.Trace().Summary
	assert.Equal(t, 2, summary.TotalAgents)
	assert.Equal(t, 1, summary.CompletedAgents)
	assert.Equal(t, 1, summary.FailedAgents)
	assert.Equal(t, 1, summary.TotalToolCalls)
	assert.Len(t, r.Trace().Errors, 1)
}

func TestRecorder_EndRunWithoutStartRunStillProducesValidTrace(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir, newFakeClock())
	require.NoError(t, r.EndRun(RunStatusFailed))
	assert.Equal(t, "unknown", r.Trace().ProjectID)
}
