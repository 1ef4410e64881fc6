// Package runner implements the Runner (spec §4.7): the engine's
// single entry point, responsible only for YAML → execution → Trace.
// Grounded directly on original_source/nexous/core/runner.py's Runner
// class — the Runner never calls an LLM itself; that is the Agent's
// job (spec §5).
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexous-ai/nexous/internal/agent"
	"github.com/nexous-ai/nexous/internal/graph"
	"github.com/nexous-ai/nexous/internal/nexerr"
	"github.com/nexous-ai/nexous/internal/project"
	"github.com/nexous-ai/nexous/internal/provider"
	"github.com/nexous-ai/nexous/internal/runstore"
	"github.com/nexous-ai/nexous/internal/telemetry"
	"github.com/nexous-ai/nexous/internal/tools"
	"github.com/nexous-ai/nexous/internal/trace"
)

// Options configures a Runner instance. Each Runner owns its own
// Preset cache and Provider Adapter Registry (spec §5) — never
// package-level singletons.
type Options struct {
	TraceDir         string
	PresetDir        string
	ProviderRegistry *provider.Registry
	ToolRegistry     *tools.Registry
	Telemetry        telemetry.Telemetry
	DryRun           bool

	// RunStore, when non-nil, durably indexes run metadata alongside the
	// trace.json (spec §6A, NEW — strictly additive; nil disables it).
	RunStore *runstore.Store
}

// Runner executes one ProjectSpec end-to-end and writes its Trace.
type Runner struct {
	traceDir     string
	presetCache  *project.PresetCache
	providers    *provider.Registry
	toolRegistry *tools.Registry
	tel          telemetry.Telemetry
	dryRun       bool
	runStore     *runstore.Store
}

// New constructs a Runner from Options.
func New(opts Options) *Runner {
	return &Runner{
		traceDir:     opts.TraceDir,
		presetCache:  project.NewPresetCache(opts.PresetDir),
		providers:    opts.ProviderRegistry,
		toolRegistry: opts.ToolRegistry,
		tel:          opts.Telemetry,
		dryRun:       opts.DryRun,
		runStore:     opts.RunStore,
	}
}

// indexRun records current run state in the optional RunStore. Failures
// are logged, not propagated: the index is a convenience, never the
// source of truth for run outcome.
func (r *Runner) indexRun(ctx context.Context, projectID, runID string, t *trace.Trace) {
	if r.runStore == nil || t == nil {
		return
	}
	var endedAt *time.Time
	if !t.EndedAt.IsZero() {
		e := t.EndedAt
		endedAt = &e
	}
	rec := runstore.RunRecord{
		ProjectID:     projectID,
		RunID:         runID,
		Status:        string(t.Status),
		ExecutionMode: t.ExecutionMode,
		TracePath:     trace.CanonicalPath(r.traceDir, projectID, runID),
		StartedAt:     t.StartedAt,
		EndedAt:       endedAt,
		DurationMS:    t.DurationMS,
	}
	if err := r.runStore.Upsert(ctx, rec); err != nil {
		r.tel.Logger.Warn(ctx, "run index upsert failed", "project_id", projectID, "run_id", runID, "error", err.Error())
	}
}

// GenerateRunID produces a run id in the original's
// "run_<timestamp>_<hex6>" shape.
func GenerateRunID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().UTC().Format("20060102_150405"), uuid.NewString()[:6])
}

// ResolveUseLLM applies the NEXOUS_USE_LLM environment override on top
// of an explicit flag, mirroring AgentFactory.__init__: the env var,
// when set to true/1/yes, forces LLM mode on regardless of what the
// caller (a CLI flag, an HTTP request body) asked for. The engine's
// own default, absent both, is false — the placeholder path.
func ResolveUseLLM(explicit bool) bool {
	switch strings.ToLower(os.Getenv("NEXOUS_USE_LLM")) {
	case "true", "1", "yes":
		return true
	}
	return explicit
}

// Run loads projectYAMLPath, resolves and executes its agents in
// dependency order, and returns the path to the written trace.json.
// useLLM selects between the real LLM-calling Agent and the
// PresetAgent placeholder (spec §4.7) for every agent in this run;
// callers should pass it through ResolveUseLLM first.
func (r *Runner) Run(ctx context.Context, projectYAMLPath, runID string, useLLM bool) (string, error) {
	useLLM = ResolveUseLLM(useLLM)
	if runID == "" {
		runID = GenerateRunID()
	}

	recorder := trace.NewRecorder(r.traceDir, trace.SystemClock{})
	recorder.SetTelemetry(r.tel)
	projectID := strings.TrimSuffix(filepath.Base(projectYAMLPath), filepath.Ext(projectYAMLPath))

	spec, err := project.LoadProjectFile(projectYAMLPath)
	if err != nil {
		return r.fail(ctx, recorder, projectID, runID, "sequential", err)
	}
	projectID = spec.ProjectID

	if err := r.presetCache.LoadAll(); err != nil {
		return r.fail(ctx, recorder, projectID, runID, spec.Execution.Mode, err)
	}
	r.tel.Logger.Info(ctx, "presets loaded", "presets", r.presetCache.List())

	if err := recorder.StartRun(projectID, runID, spec.Execution.Mode); err != nil {
		return "", err
	}
	r.indexRun(ctx, projectID, runID, recorder.Trace())

	ordered, err := resolveOrder(spec.Agents)
	if err != nil {
		return r.fail(ctx, recorder, projectID, runID, spec.Execution.Mode, err)
	}

	if r.dryRun {
		if err := recorder.EndRun(trace.RunStatusCompleted); err != nil {
			return "", err
		}
		r.indexRun(ctx, projectID, runID, recorder.Trace())
		return trace.CanonicalPath(r.traceDir, projectID, runID), nil
	}

	agents, err := r.instantiateAgents(ordered, recorder, useLLM)
	if err != nil {
		return r.fail(ctx, recorder, projectID, runID, spec.Execution.Mode, err)
	}

	results := make(map[string]agent.Result, len(agents))
	for _, ag := range agents {
		res, err := r.executeAgent(ctx, ag, results, spec, recorder)
		if err != nil {
			if endErr := recorder.EndRun(trace.RunStatusFailed); endErr != nil {
				return "", endErr
			}
			r.indexRun(ctx, projectID, runID, recorder.Trace())
			return trace.CanonicalPath(r.traceDir, projectID, runID), err
		}
		results[ag.AgentID] = res
	}

	if err := recorder.EndRun(trace.RunStatusCompleted); err != nil {
		return "", err
	}
	r.indexRun(ctx, projectID, runID, recorder.Trace())
	return trace.CanonicalPath(r.traceDir, projectID, runID), nil
}

// resolveOrder runs the dependency Resolver over the project's
// AgentSpecs (Runner._resolve_dependencies).
func resolveOrder(specs []project.AgentSpec) ([]project.AgentSpec, error) {
	nodes := make([]graph.Node, len(specs))
	byID := make(map[string]project.AgentSpec, len(specs))
	for i, s := range specs {
		nodes[i] = graph.Node{ID: s.ID, Dependencies: s.Dependencies}
		byID[s.ID] = s
	}
	ordered, err := graph.Resolve(nodes)
	if err != nil {
		return nil, err
	}
	out := make([]project.AgentSpec, len(ordered))
	for i, n := range ordered {
		out[i] = byID[n.ID]
	}
	return out, nil
}

// instantiateAgents resolves each AgentSpec's preset and builds an
// Agent (AgentFactory.create): useLLM selects the GenericAgent
// LLM-calling path when true, the PresetAgent placeholder path
// (spec §4.7) when false — every agent in a run shares the same mode.
func (r *Runner) instantiateAgents(specs []project.AgentSpec, recorder *trace.Recorder, useLLM bool) ([]*agent.Agent, error) {
	agents := make([]*agent.Agent, 0, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return nil, nexerr.New(nexerr.KindAgentCreation, "missing 'id' in agent spec", nil)
		}
		if spec.Preset == "" {
			return nil, nexerr.New(nexerr.KindAgentCreation, fmt.Sprintf("missing 'preset' in agent spec for '%s'", spec.ID), nil)
		}
		preset, err := r.presetCache.Get(spec.Preset)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent.New(spec.ID, *preset, spec, r.providers, r.toolRegistry, recorder, r.tel, useLLM))
	}
	return agents, nil
}

// executeAgent runs one Agent, logging its INPUT/OUTPUT steps and
// lifecycle, mirroring Runner._execute_agent.
func (r *Runner) executeAgent(ctx context.Context, ag *agent.Agent, previousResults map[string]agent.Result, spec *project.ProjectSpec, recorder *trace.Recorder) (agent.Result, error) {
	if err := recorder.StartAgent(ag.AgentID, ag.Preset.ID, ag.Purpose); err != nil {
		return agent.Result{}, err
	}

	depContext := make([]string, 0, len(ag.Config.Dependencies))
	for _, dep := range ag.Config.Dependencies {
		if _, ok := previousResults[dep]; ok {
			depContext = append(depContext, dep)
		}
	}
	inputKeys := make([]string, 0, len(ag.Config.Inputs))
	for k := range ag.Config.Inputs {
		inputKeys = append(inputKeys, k)
	}
	if len(inputKeys) == 0 {
		inputKeys = []string{"project_context"}
	}
	recorder.LogStep(ag.AgentID, trace.StepInput, trace.StepStatusOK, map[string]any{
		"context":           inputKeys,
		"previous_results":  depContext,
	}, nil)

	execCtx := agent.ExecContext{Project: spec, PreviousResults: previousResults, Inputs: ag.Config.Inputs}
	res, err := ag.Execute(ctx, execCtx)
	if err != nil {
		wrapped := agent.WrapAgentError(ag.AgentID, err)
		message := wrapped.Error()
		if ne, ok := nexerr.As(wrapped); ok {
			message = ne.Message
		}
		// Every agent-execution failure becomes AGENT_ERROR in the trace,
		// regardless of the underlying cause's own Kind (a Router
		// LLM_ALL_FAILED included) — Runner._execute_agent's except
		// clause hardcodes this same collapse.
		recorder.LogError(ag.AgentID, fmt.Sprintf("%s.execute", ag.AgentID), string(nexerr.KindAgentError), message, false)
		recorder.EndAgent(ag.AgentID, trace.AgentStatusFailed)
		return agent.Result{}, wrapped
	}

	recorder.LogStep(ag.AgentID, trace.StepOutput, trace.StepStatusOK, map[string]any{
		"output_keys":  []string{"status", "llm_response", "validated_output", "tool_results"},
		"artifact_ids": res.ArtifactIDs,
	}, nil)
	recorder.EndAgent(ag.AgentID, trace.AgentStatusCompleted)
	return res, nil
}

// fail ensures the recorder has at least a minimal run started, logs a
// terminal runner-level error, and writes the failed trace, mirroring
// Runner.run's outer except clause.
func (r *Runner) fail(ctx context.Context, recorder *trace.Recorder, projectID, runID, executionMode string, err error) (string, error) {
	if recorder.Trace() == nil {
		_ = recorder.StartRun(projectID, runID, executionMode)
	}
	kind := nexerr.KindAgentError
	message := err.Error()
	if ne, ok := nexerr.As(err); ok {
		kind = ne.Kind
		message = ne.Message
	}
	recorder.LogError("runner", "runner.init", string(kind), message, false)
	if endErr := recorder.EndRun(trace.RunStatusFailed); endErr != nil {
		return "", endErr
	}
	r.indexRun(ctx, projectID, runID, recorder.Trace())
	return trace.CanonicalPath(r.traceDir, projectID, runID), err
}
