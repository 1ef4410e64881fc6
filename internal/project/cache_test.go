package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

func TestPresetCache_LoadAllAndGet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "summarizer.yaml", `
role: Summarizer
system_prompt: Summarize.
llm:
  provider: openai
  model: gpt-4o
`)
	writeFile(t, dir, "README.md", "not a preset")

	cache := NewPresetCache(dir)
	require.NoError(t, cache.LoadAll())

	preset, err := cache.Get("summarizer")
	require.NoError(t, err)
	assert.Equal(t, "Summarizer", preset.Role)
	assert.Equal(t, []string{"summarizer"}, cache.List())
}

func TestPresetCache_GetLazyLoads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.yaml", `
role: R
system_prompt: S
llm:
  provider: openai
`)
	cache := NewPresetCache(dir)
	preset, err := cache.Get("p")
	require.NoError(t, err)
	assert.Equal(t, "p", preset.ID)
}

func TestPresetCache_UnknownPreset(t *testing.T) {
	cache := NewPresetCache(t.TempDir())
	_, err := cache.Get("ghost")
	require.Error(t, err)
	ne, ok := nexerr.As(err)
	require.True(t, ok)
	assert.Equal(t, nexerr.KindPresetNotFound, ne.Kind)
}

func TestPresetCache_MissingDirectoryIsNotAnError(t *testing.T) {
	cache := NewPresetCache(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, cache.LoadAll())
	assert.Empty(t, cache.List())
}

func TestPresetCache_ReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role: First\nsystem_prompt: s\nllm:\n  provider: openai\n"), 0o644))

	cache := NewPresetCache(dir)
	require.NoError(t, cache.LoadAll())
	first, err := cache.Get("p")
	require.NoError(t, err)
	assert.Equal(t, "First", first.Role)

	require.NoError(t, os.WriteFile(path, []byte("role: Second\nsystem_prompt: s\nllm:\n  provider: openai\n"), 0o644))
	require.NoError(t, cache.LoadAll())
	second, err := cache.Get("p")
	require.NoError(t, err)
	assert.Equal(t, "Second", second.Role)
}
