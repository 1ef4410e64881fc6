package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileWriteTool writes content to a file, creating parent directories
// as needed, mirroring FileWriteTool.run.
type FileWriteTool struct {
	baseDir string
}

// NewFileWriteTool constructs the file_write tool rooted at baseDir.
func NewFileWriteTool(baseDir string) *FileWriteTool {
	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}
	return &FileWriteTool{baseDir: baseDir}
}

func (t *FileWriteTool) Name() string        { return "file_write" }
func (t *FileWriteTool) Description() string { return "Write contents to a file" }

// Run writes args["content"] to args["path"]. args["append"] (bool)
// selects append vs. truncate mode, defaulting to truncate.
func (t *FileWriteTool) Run(_ context.Context, args map[string]any) Result {
	start := time.Now()
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	if path == "" {
		return makeResult(false, "", "path is required", nil)
	}
	append, _ := args["append"].(bool)

	resolved := t.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return makeResult(false, "", err.Error(), latencyMeta(start))
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if append {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		return makeResult(false, "", err.Error(), latencyMeta(start))
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return makeResult(false, "", err.Error(), latencyMeta(start))
	}

	action := "written"
	if append {
		action = "appended"
	}
	meta := latencyMeta(start)
	meta["bytes"] = len(content)
	meta["action"] = action
	return makeResult(true, fmt.Sprintf("%s %d chars to %s", action, len(content), path), "", meta)
}

func (t *FileWriteTool) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(t.baseDir, path)
}
