package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexous-ai/nexous/internal/model"
	"github.com/nexous-ai/nexous/internal/provider"
	"github.com/nexous-ai/nexous/internal/provider/anthropic"
	"github.com/nexous-ai/nexous/internal/provider/gemini"
	"github.com/nexous-ai/nexous/internal/provider/openai"
	"github.com/nexous-ai/nexous/internal/runner"
	"github.com/nexous-ai/nexous/internal/runstore"
	"github.com/nexous-ai/nexous/internal/telemetry"
	"github.com/nexous-ai/nexous/internal/tools"
)

var (
	runRunID     string
	runUseLLM    bool
	runDryRun    bool
	runTraceDir  string
	runPresetDir string
	runBaseDir   string
)

var runCmd = &cobra.Command{
	Use:   "run [project.yaml]",
	Short: "Run a NEXOUS project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = cmdRun(cmd.Context(), args[0])
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runRunID, "run-id", "", "Run ID (auto-generated if not specified)")
	runCmd.Flags().BoolVar(&runUseLLM, "use-llm", false, "Use real LLM providers (requires a provider API key)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Validate YAML without execution")
	runCmd.Flags().StringVar(&runTraceDir, "trace-dir", "traces", "Directory for trace output")
	runCmd.Flags().StringVar(&runPresetDir, "preset-dir", "presets", "Directory containing preset YAML files")
	runCmd.Flags().StringVar(&runBaseDir, "base-dir", ".", "Base directory that relative file_read/file_write paths resolve against")
}

func cmdRun(ctx context.Context, projectPath string) int {
	if _, err := os.Stat(projectPath); err != nil {
		nexousPrintf("Error: Project file not found: %s", projectPath)
		return 1
	}

	if runDryRun {
		nexousPrintf("Dry-run mode: validating %s", projectPath)
		r := runner.New(runner.Options{TraceDir: runTraceDir, PresetDir: runPresetDir, Telemetry: telemetry.Noop(), DryRun: true})
		if _, err := r.Run(ctx, projectPath, runRunID, false); err != nil {
			nexousPrintf("Validation failed: %v", err)
			return 1
		}
		nexousPrintf("Validation passed: %s", projectPath)
		return 0
	}

	useLLM := runner.ResolveUseLLM(runUseLLM)

	if useLLM {
		if missing := missingAPIKeys(); len(missing) == len(apiKeyEnvVars) {
			nexousPrintf("Error: no provider API key set (need one of %v)", apiKeyEnvVars)
			nexousPrintf("Set an API key in a .env file or environment variable")
			return 1
		}
	}

	nexousPrintf("Project execution started")
	nexousPrintf("Project: %s", projectPath)
	if useLLM {
		nexousPrintf("LLM Mode: ENABLED")
	} else {
		nexousPrintf("LLM Mode: DISABLED (placeholder agents)")
	}
	if runRunID != "" {
		nexousPrintf("Run ID: %s", runRunID)
	}

	registry, err := buildProviderRegistry(ctx)
	if err != nil {
		nexousPrintf("Execution failed: %v", err)
		return 1
	}

	runStore, err := buildRunStore(ctx)
	if err != nil {
		nexousPrintf("Execution failed: %v", err)
		return 1
	}
	if runStore != nil {
		defer runStore.Close()
	}

	r := runner.New(runner.Options{
		TraceDir:         runTraceDir,
		PresetDir:        runPresetDir,
		ProviderRegistry: registry,
		ToolRegistry:     tools.NewRegistry(runBaseDir, "python3"),
		Telemetry:        telemetry.Telemetry{Logger: telemetry.NewClueLogger(), Metrics: telemetry.NewClueMetrics(), Tracer: telemetry.NewClueTracer()},
		RunStore:         runStore,
	})

	tracePath, err := r.Run(ctx, projectPath, runRunID, useLLM)
	if err != nil {
		nexousPrintf("Execution failed: %v", err)
		return 1
	}

	nexousPrintf("Trace written to %s", tracePath)
	nexousPrintf("Project execution completed")
	return 0
}

var apiKeyEnvVars = []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"}

func missingAPIKeys() []string {
	var missing []string
	for _, name := range apiKeyEnvVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// buildProviderRegistry wires an adapter for every provider whose API
// key is present in the environment, mirroring the spec §6 precedence
// of OPENAI_API_KEY / ANTHROPIC_API_KEY / GOOGLE_API_KEY (GEMINI_API_KEY
// as a synonym).
func buildProviderRegistry(ctx context.Context) (*provider.Registry, error) {
	var clients []model.Client
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		clients = append(clients, openai.New(key))
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		clients = append(clients, anthropic.New(key))
	}
	geminiKey := os.Getenv("GOOGLE_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if geminiKey != "" {
		client, err := gemini.New(ctx, geminiKey)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return provider.NewRegistry(clients...), nil
}

// buildRunStore opens an optional durable run index when NEXOUS_DATABASE_URL
// is set, returning a nil Store (and nil error) otherwise.
func buildRunStore(ctx context.Context) (*runstore.Store, error) {
	dsn := os.Getenv("NEXOUS_DATABASE_URL")
	if dsn == "" {
		return nil, nil
	}
	return runstore.Open(ctx, dsn)
}
