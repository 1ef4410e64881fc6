package anthropic

import (
	"context"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexous-ai/nexous/internal/model"
)

type fakeMessages struct {
	resp  *sdk.Message
	err   error
	block bool
}

func (f *fakeMessages) New(ctx context.Context, _ sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func TestClient_NewWithEmptyAPIKeyIsUnavailable(t *testing.T) {
	c := New("")
	assert.False(t, c.IsAvailable())

	_, err := c.Generate(context.Background(), model.Request{Model: "claude-sonnet-4-5-20250929"})
	require.Error(t, err)
	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Recoverable)
}

func TestClient_RejectsModelNotInAllowList(t *testing.T) {
	c := NewWithClient(&fakeMessages{})
	_, err := c.Generate(context.Background(), model.Request{
		Model:     "not-a-real-model",
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		MaxTokens: 100,
	})
	require.Error(t, err)
	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Recoverable)
}

func TestClient_RejectsEmptyConversation(t *testing.T) {
	c := NewWithClient(&fakeMessages{})
	_, err := c.Generate(context.Background(), model.Request{
		Model:     "claude-sonnet-4-5-20250929",
		Messages:  []model.Message{{Role: model.RoleSystem, Content: "be terse"}},
		MaxTokens: 100,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one user/assistant message")
}

func TestClient_RejectsNonPositiveMaxTokens(t *testing.T) {
	c := NewWithClient(&fakeMessages{})
	_, err := c.Generate(context.Background(), model.Request{
		Model:    "claude-sonnet-4-5-20250929",
		Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestClient_GeneratePopulatesResponse(t *testing.T) {
	fake := &fakeMessages{resp: &sdk.Message{
		Content:    []sdk.ContentBlockUnion{{Type: "text", Text: "hello there"}},
		StopReason: sdk.StopReasonEndTurn,
		Usage:      sdk.Usage{InputTokens: 12, OutputTokens: 6},
	}}
	c := NewWithClient(fake)

	resp, err := c.Generate(context.Background(), model.Request{
		Model:     "claude-sonnet-4-5-20250929",
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 6, resp.Usage.OutputTokens)
}

func TestClient_GenerateRespectsRequestTimeout(t *testing.T) {
	c := NewWithClient(&fakeMessages{block: true})
	start := time.Now()
	_, err := c.Generate(context.Background(), model.Request{
		Model:     "claude-sonnet-4-5-20250929",
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		MaxTokens: 100,
		Timeout:   0.05,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_DeadlineExceededIsRecoverable(t *testing.T) {
	c := NewWithClient(&fakeMessages{err: context.DeadlineExceeded})
	_, err := c.Generate(context.Background(), model.Request{
		Model:     "claude-sonnet-4-5-20250929",
		Messages:  []model.Message{{Role: model.RoleUser, Content: "hi"}},
		MaxTokens: 100,
	})
	require.Error(t, err)
	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Recoverable)
}
