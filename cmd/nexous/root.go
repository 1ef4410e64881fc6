package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// exitCode is set by each subcommand's RunE before returning; main()
// reads it after Execute returns. Subcommands report their own
// "[NEXOUS] ..." failure lines and return nil so cobra never prints its
// own duplicate error banner, matching the original's `return 1`
// (a plain function return, never a raised/propagated exception).
var exitCode int

var rootCmd = &cobra.Command{
	Use:     "nexous",
	Short:   "NEXOUS - Multi-Agent Orchestration System",
	Version: "0.1.0",
	Example: strings.TrimSpace(`
  nexous run project.yaml
  nexous run project.yaml --run-id my_run_001
  nexous run project.yaml --use-llm
  nexous run project.yaml --dry-run`),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	loadDotEnv()
	rootCmd.AddCommand(runCmd, replayCmd, diffCmd)
}

// loadDotEnv mirrors main.py's load_env(): values already present in
// the environment always win over the .env file.
func loadDotEnv() {
	for _, path := range []string{".env"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			if key == "" {
				continue
			}
			if _, set := os.LookupEnv(key); !set {
				os.Setenv(key, value)
			}
		}
		return
	}
}

func nexousPrintf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, "[NEXOUS] "+format+"\n", args...)
}
