package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nexous-ai/nexous/internal/nexerr"
	"github.com/nexous-ai/nexous/internal/project"
	"github.com/nexous-ai/nexous/internal/runner"
	"github.com/nexous-ai/nexous/internal/telemetry"
	"github.com/nexous-ai/nexous/internal/tools"
	"github.com/nexous-ai/nexous/internal/trace"
)

var replayMode string

var replayCmd = &cobra.Command{
	Use:   "replay [trace.json]",
	Short: "Replay execution from a trace file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = cmdReplay(cmd.Context(), args[0])
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayMode, "mode", "dry", `Replay mode: "dry" (timeline only) or "full" (actual execution)`)
}

func cmdReplay(ctx context.Context, tracePath string) int {
	mode := trace.ReplayMode(replayMode)
	if mode != trace.ReplayDry && mode != trace.ReplayFull {
		nexousPrintf("Error: invalid --mode %q (want dry or full)", replayMode)
		return 1
	}

	nexousPrintf("Trace Replay started")
	nexousPrintf("Trace file: %s", tracePath)
	nexousPrintf("Mode: %s", strings.ToUpper(replayMode))

	replayer := trace.NewReplayer(tracePath, mode)
	if err := replayer.Validate(); err != nil {
		nexousPrintf("Error: %v", err)
		return 1
	}

	if mode == trace.ReplayDry {
		if err := printDryReplay(replayer); err != nil {
			nexousPrintf("Replay failed: %v", err)
			return 1
		}
		fmt.Println()
		nexousPrintf("Replay completed successfully")
		return 0
	}

	newTracePath, newRunID, err := fullReplay(ctx, replayer, tracePath)
	if err != nil {
		nexousPrintf("Replay failed: %v", err)
		return 1
	}
	fmt.Println()
	nexousPrintf("FULL Replay completed!")
	nexousPrintf("New trace: %s", newTracePath)
	nexousPrintf("New run_id: %s", newRunID)
	nexousPrintf("Replay completed successfully")
	return 0
}

// printDryReplay reproduces the trace's recorded timeline with no
// provider/tool calls, mirroring TraceReplay.replay's "dry" branch.
func printDryReplay(replayer *trace.Replayer) error {
	t, err := replayer.Load()
	if err != nil {
		return err
	}
	fmt.Printf("\nDRY RUN: %s\n", t.RunID)
	fmt.Printf("   Project: %s\n", t.ProjectID)
	fmt.Printf("   Status: %s\n", t.Status)
	fmt.Printf("   Duration: %dms\n", t.DurationMS)
	fmt.Printf("   Mode: DRY\n")
	fmt.Printf("   LLM/Tool calls not re-issued; timeline only.\n\n")

	timeline, err := replayer.Timeline()
	if err != nil {
		return err
	}
	for _, entry := range timeline {
		fmt.Printf("%s (%s)\n", entry.AgentID, entry.Status)
		fmt.Printf("   Preset: %s\n", entry.PresetID)
		fmt.Printf("   Steps: %d\n", entry.NumSteps)
		fmt.Println()
	}

	errs, err := replayer.Errors()
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		fmt.Println("Errors:")
		for _, e := range errs {
			fmt.Printf("   - %s: %s\n", e.AgentID, e.Message)
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("   Total Agents: %d\n", t.Summary.TotalAgents)
	fmt.Printf("   Completed: %d\n", t.Summary.CompletedAgents)
	fmt.Printf("   Failed: %d\n", t.Summary.FailedAgents)
	fmt.Printf("   LLM Calls: %d\n", t.Summary.TotalLLMCalls)
	fmt.Printf("   Duration: %dms\n", t.Summary.DurationMS)
	return nil
}

// fullReplay reconstructs a minimal ProjectSpec from the trace and runs
// it for real, always with live providers, mirroring
// TraceReplay._full_replay (which hard-codes use_llm=True).
func fullReplay(ctx context.Context, replayer *trace.Replayer, tracePath string) (newTracePath, newRunID string, err error) {
	fmt.Println("Reconstructing project from trace...")

	projectID, agents, err := replayer.ReconstructProject()
	if err != nil {
		return "", "", err
	}

	spec := &project.ProjectSpec{
		ProjectID: projectID,
		Execution: project.Execution{Mode: "sequential"},
	}
	for _, a := range agents {
		inputs := make(map[string]any, len(a.InputKeys))
		for _, k := range a.InputKeys {
			inputs[k] = fmt.Sprintf("{{ %s }}", k)
		}
		spec.Agents = append(spec.Agents, project.AgentSpec{
			ID: a.ID, Preset: a.Preset, Purpose: a.Purpose, Inputs: inputs,
		})
	}

	tmp, err := os.CreateTemp("", "nexous-replay-*.yaml")
	if err != nil {
		return "", "", err
	}
	defer os.Remove(tmp.Name())
	if err := writeProjectYAML(tmp, spec); err != nil {
		tmp.Close()
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	fmt.Printf("Project reconstructed: %s\n", tmp.Name())
	fmt.Println("Running project with live providers...")

	newRunID = fmt.Sprintf("replay_%s_%s", projectID, runner.GenerateRunID())

	registry, err := buildProviderRegistry(ctx)
	if err != nil {
		return "", "", err
	}
	if len(registry.Names()) == 0 {
		return "", "", nexerr.New(nexerr.KindProviderUnavailable, "no provider API key set for FULL replay", nil)
	}

	runStore, err := buildRunStore(ctx)
	if err != nil {
		return "", "", err
	}
	if runStore != nil {
		defer runStore.Close()
	}

	r := runner.New(runner.Options{
		TraceDir:         "traces",
		PresetDir:        runPresetDir,
		ProviderRegistry: registry,
		ToolRegistry:     tools.NewRegistry(runBaseDir, "python3"),
		Telemetry:        telemetry.Telemetry{Logger: telemetry.NewClueLogger(), Metrics: telemetry.NewClueMetrics(), Tracer: telemetry.NewClueTracer()},
		RunStore:         runStore,
	})
	newTracePath, err = r.Run(ctx, tmp.Name(), newRunID, true)
	return newTracePath, newRunID, err
}

func writeProjectYAML(f *os.File, spec *project.ProjectSpec) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}
