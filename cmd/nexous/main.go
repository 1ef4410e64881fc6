// Command nexous is the engine's execution entry point (spec §6). It is
// deliberately thin: input parsing, one call into internal/runner or
// internal/trace, and a status line — no decisions live here. Grounded
// on original_source/nexous/cli/main.py's argparse structure, expressed
// with github.com/spf13/cobra the way emergent-company-emergent's
// tools/emergent-cli does.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}
