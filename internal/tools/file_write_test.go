package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriteTool_WritesNewFile(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileWriteTool(dir)

	res := tool.Run(context.Background(), map[string]any{"path": "out.txt", "content": "generated by an agent"})
	require.True(t, res.OK)
	assert.Equal(t, "written", res.Metadata["action"])

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "generated by an agent", string(data))
}

func TestFileWriteTool_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileWriteTool(dir)

	res := tool.Run(context.Background(), map[string]any{"path": "a/b/c/out.txt", "content": "nested"})
	require.True(t, res.OK)

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(data))
}

func TestFileWriteTool_AppendMode(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileWriteTool(dir)

	require.True(t, tool.Run(context.Background(), map[string]any{"path": "log.txt", "content": "first\n"}).OK)
	res := tool.Run(context.Background(), map[string]any{"path": "log.txt", "content": "second\n", "append": true})
	require.True(t, res.OK)
	assert.Equal(t, "appended", res.Metadata["action"])

	data, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestFileWriteTool_TruncatesByDefault(t *testing.T) {
	dir := t.TempDir()
	tool := NewFileWriteTool(dir)

	require.True(t, tool.Run(context.Background(), map[string]any{"path": "f.txt", "content": "aaaaaaaaaa"}).OK)
	require.True(t, tool.Run(context.Background(), map[string]any{"path": "f.txt", "content": "bb"}).OK)

	data, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))
}

func TestFileWriteTool_MissingPathArg(t *testing.T) {
	tool := NewFileWriteTool(t.TempDir())
	res := tool.Run(context.Background(), map[string]any{"content": "x"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "path is required")
}
