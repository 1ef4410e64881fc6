package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexous-ai/nexous/internal/trace"
)

var diffOnly string

var diffCmd = &cobra.Command{
	Use:   "diff [trace1.json] [trace2.json]",
	Short: "Compare two trace files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = cmdDiff(args[0], args[1])
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffOnly, "only", "", `Filter comparison: "llm", "tools", or "errors"`)
}

func cmdDiff(path1, path2 string) int {
	filter := trace.DiffFilter(diffOnly)
	switch filter {
	case trace.DiffAll, trace.DiffLLM, trace.DiffTools, trace.DiffErrors:
	default:
		nexousPrintf("Error: invalid --only %q (want llm, tools, or errors)", diffOnly)
		return 1
	}

	nexousPrintf("Trace Diff started")
	nexousPrintf("Trace 1: %s", path1)
	nexousPrintf("Trace 2: %s", path2)
	if diffOnly != "" {
		nexousPrintf("Filter: --only %s", diffOnly)
	}

	differ := trace.NewDiffer(path1, path2)
	result, err := differ.Compare(filter)
	if err != nil {
		nexousPrintf("Error: %v", err)
		return 1
	}

	printDiff(filter, result)

	fmt.Println()
	nexousPrintf("Diff completed successfully")
	return 0
}

func printDiff(filter trace.DiffFilter, d *trace.Diff) {
	switch filter {
	case trace.DiffLLM:
		printLLMDiff(d)
	case trace.DiffTools:
		printToolDiff(d)
	case trace.DiffErrors:
		printErrorDiff(d)
	default:
		printFullDiff(d)
	}
}

func printLLMDiff(d *trace.Diff) {
	fmt.Println("LLM Calls:")
	fmt.Printf("   Trace1: %d calls\n", len(d.LLMCalls1))
	fmt.Printf("   Trace2: %d calls\n", len(d.LLMCalls2))
	if len(d.LLMCalls1) == len(d.LLMCalls2) {
		fmt.Println("   Status: same count")
	} else {
		fmt.Println("   Status: different count")
	}

	var tokens1, tokens2, latency1, latency2 int64
	for _, c := range d.LLMCalls1 {
		tokens1 += int64(c.Tokens)
		latency1 += c.LatencyMS
	}
	for _, c := range d.LLMCalls2 {
		tokens2 += int64(c.Tokens)
		latency2 += c.LatencyMS
	}
	fmt.Printf("\nTokens:\n   Trace1: %d\n   Trace2: %d\n", tokens1, tokens2)
	if tokens1 != tokens2 {
		fmt.Printf("   Diff: %+d\n", tokens2-tokens1)
	}
	fmt.Printf("\nLatency:\n   Trace1: %dms\n   Trace2: %dms\n", latency1, latency2)
	if latency1 != latency2 {
		fmt.Printf("   Diff: %+dms\n", latency2-latency1)
	}

	max := len(d.LLMCalls1)
	if len(d.LLMCalls2) > max {
		max = len(d.LLMCalls2)
	}
	if max == 0 {
		return
	}
	fmt.Println("\nLLM Call Details:")
	for i := 0; i < max; i++ {
		fmt.Printf("\n   Call #%d:\n", i+1)
		if i < len(d.LLMCalls1) {
			c := d.LLMCalls1[i]
			fmt.Printf("      Trace1: %s (%s/%s, %d tokens, %dms)\n", c.AgentID, c.Provider, c.Model, c.Tokens, c.LatencyMS)
		} else {
			fmt.Println("      Trace1: (no call)")
		}
		if i < len(d.LLMCalls2) {
			c := d.LLMCalls2[i]
			fmt.Printf("      Trace2: %s (%s/%s, %d tokens, %dms)\n", c.AgentID, c.Provider, c.Model, c.Tokens, c.LatencyMS)
		} else {
			fmt.Println("      Trace2: (no call)")
		}
	}
}

func printToolDiff(d *trace.Diff) {
	fmt.Println("Tool Calls:")
	fmt.Printf("   Trace1: %d calls\n", len(d.ToolCalls1))
	fmt.Printf("   Trace2: %d calls\n", len(d.ToolCalls2))
	if len(d.ToolCalls1) == len(d.ToolCalls2) {
		fmt.Println("   Status: same count")
	} else {
		fmt.Println("   Status: different count")
	}

	max := len(d.ToolCalls1)
	if len(d.ToolCalls2) > max {
		max = len(d.ToolCalls2)
	}
	if max == 0 {
		return
	}
	fmt.Println("\nTool Call Details:")
	for i := 0; i < max; i++ {
		fmt.Printf("\n   Call #%d:\n", i+1)
		if i < len(d.ToolCalls1) {
			c := d.ToolCalls1[i]
			fmt.Printf("      Trace1: %s tool=%s status=%s\n", c.AgentID, c.Tool, c.Status)
		} else {
			fmt.Println("      Trace1: (no call)")
		}
		if i < len(d.ToolCalls2) {
			c := d.ToolCalls2[i]
			fmt.Printf("      Trace2: %s tool=%s status=%s\n", c.AgentID, c.Tool, c.Status)
		} else {
			fmt.Println("      Trace2: (no call)")
		}
	}
}

func printErrorDiff(d *trace.Diff) {
	fmt.Println("Errors:")
	fmt.Printf("   Trace1: %d\n", len(d.Errors1))
	fmt.Printf("   Trace2: %d\n", len(d.Errors2))
	if len(d.Errors1) == len(d.Errors2) {
		fmt.Println("   Status: same count")
	} else {
		fmt.Println("   Status: different count")
	}
	for _, e := range d.Errors1 {
		fmt.Printf("      Trace1: %s: %s\n", e.AgentID, e.Message)
	}
	for _, e := range d.Errors2 {
		fmt.Printf("      Trace2: %s: %s\n", e.AgentID, e.Message)
	}
}

func printFullDiff(d *trace.Diff) {
	fmt.Println("Metadata:")
	for _, f := range d.Metadata {
		status := "same"
		if !f.Same {
			status = "different"
		}
		fmt.Printf("   %s: %s", f.Name, status)
		if !f.Same {
			fmt.Printf(" (Trace1: %v, Trace2: %v)", f.First, f.Second)
		}
		fmt.Println()
	}

	if len(d.Agents) > 0 {
		fmt.Printf("\nAgent Differences (%d):\n", len(d.Agents))
		for _, a := range d.Agents {
			fmt.Printf("   - %s: %s", a.AgentID, a.Kind)
			if a.FirstValue != "" || a.SecondValue != "" {
				fmt.Printf(" (%s vs %s)", a.FirstValue, a.SecondValue)
			}
			fmt.Println()
		}
	} else {
		fmt.Println("\nAgents: all same")
	}

	fmt.Printf("\nErrors:\n   Trace1: %d\n   Trace2: %d\n", len(d.Errors1), len(d.Errors2))

	fmt.Println("\nSummary:")
	for _, f := range d.Summary {
		status := "same"
		if !f.Same {
			status = "different"
		}
		fmt.Printf("   %s: %s", f.Name, status)
		if !f.Same {
			fmt.Printf(" (Trace1: %v, Trace2: %v)", f.First, f.Second)
		}
		fmt.Println()
	}
}
