package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexous-ai/nexous/internal/model"
)

type stubClient struct{ name string }

func (s *stubClient) ProviderName() string { return s.name }
func (s *stubClient) IsAvailable() bool     { return true }
func (s *stubClient) Generate(context.Context, model.Request) (model.Response, error) {
	return model.Response{}, nil
}

func TestRegistry_GetResolvesRegisteredAdapter(t *testing.T) {
	r := NewRegistry(&stubClient{name: "openai"}, &stubClient{name: "anthropic"})

	c, err := r.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.ProviderName())
}

func TestRegistry_GetUnknownProviderErrors(t *testing.T) {
	r := NewRegistry(&stubClient{name: "openai"})
	_, err := r.Get("gemini")
	assert.Error(t, err)
}

func TestRegistry_SkipsNilAdapters(t *testing.T) {
	r := NewRegistry(&stubClient{name: "openai"}, nil)
	assert.ElementsMatch(t, []string{"openai"}, r.Names())
}

func TestRegistry_NamesReflectsAllRegistered(t *testing.T) {
	r := NewRegistry(&stubClient{name: "openai"}, &stubClient{name: "anthropic"}, &stubClient{name: "gemini"})
	assert.ElementsMatch(t, []string{"openai", "anthropic", "gemini"}, r.Names())
}
