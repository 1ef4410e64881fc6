package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReadTool_ReadsRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello nexous"), 0o644))

	tool := NewFileReadTool(dir)
	res := tool.Run(context.Background(), map[string]any{"path": "notes.txt"})

	assert.True(t, res.OK)
	assert.Equal(t, "hello nexous", res.Output)
	assert.Equal(t, int64(len("hello nexous")), res.Metadata["file_size"])
}

func TestFileReadTool_MissingPathArg(t *testing.T) {
	tool := NewFileReadTool(t.TempDir())
	res := tool.Run(context.Background(), map[string]any{})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "path is required")
}

func TestFileReadTool_FileNotFound(t *testing.T) {
	tool := NewFileReadTool(t.TempDir())
	res := tool.Run(context.Background(), map[string]any{"path": "missing.txt"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "File not found")
}

func TestFileReadTool_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileReadTool(dir)
	res := tool.Run(context.Background(), map[string]any{"path": "."})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "directory")
}

func TestFileReadTool_RejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxFileReadBytes+1))
	require.NoError(t, f.Close())

	tool := NewFileReadTool(dir)
	res := tool.Run(context.Background(), map[string]any{"path": "big.bin"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "too large")
}

func TestFileReadTool_RejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644))

	tool := NewFileReadTool(dir)
	res := tool.Run(context.Background(), map[string]any{"path": "bad.bin"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "Encoding error")
}

func TestFileReadTool_AbsolutePathBypassesBaseDir(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	path := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("outside content"), 0o644))

	tool := NewFileReadTool(dir)
	res := tool.Run(context.Background(), map[string]any{"path": path})
	assert.True(t, res.OK)
	assert.True(t, strings.Contains(res.Output, "outside content"))
}
