package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolvesAllowedTools(t *testing.T) {
	reg := NewRegistry(t.TempDir(), "python3")
	for _, name := range AllowedTools {
		tool, err := reg.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, tool.Name())
	}
}

func TestRegistry_RejectsUnknownTool(t *testing.T) {
	reg := NewRegistry(t.TempDir(), "python3")
	_, err := reg.Get("shell_exec")
	assert.Error(t, err)
}

func TestRegistry_IsAvailable(t *testing.T) {
	reg := NewRegistry(t.TempDir(), "python3")
	assert.True(t, reg.IsAvailable("file_read"))
	assert.False(t, reg.IsAvailable("network_fetch"))
}

func TestRegistry_ListToolsMatchesAllowlist(t *testing.T) {
	reg := NewRegistry(t.TempDir(), "python3")
	assert.ElementsMatch(t, AllowedTools, reg.ListTools())
}
