// Package tools implements the closed Tool Registry (spec §4.5):
// exactly three tools, python_exec/file_read/file_write, each
// grounded directly on the matching original_source/nexous/tools
// module. An Agent reaches a Tool only through the Registry; the
// Runner never references this package.
package tools

import "context"

// Result is the fixed contract every Tool returns, mirroring the
// original's ToolResult TypedDict.
type Result struct {
	OK       bool
	Output   string
	Error    string
	Metadata map[string]any
}

// Tool is the interface every registered tool implements.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, args map[string]any) Result
}

func makeResult(ok bool, output, errMsg string, metadata map[string]any) Result {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Result{OK: ok, Output: output, Error: errMsg, Metadata: metadata}
}
