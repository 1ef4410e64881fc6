package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_MessageFormatting(t *testing.T) {
	err := NewProviderError("openai", "gpt-4o", "rate limited", true, nil)
	assert.Equal(t, "openai/gpt-4o: rate limited", err.Error())
	assert.True(t, err.Recoverable)
}

func TestProviderError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewProviderError("anthropic", "claude-sonnet-4", "transport failure", true, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestProviderError_UnwrapNilCause(t *testing.T) {
	err := NewProviderError("gemini", "gemini-2.5-pro", "bad request", false, nil)
	assert.Nil(t, errors.Unwrap(err))
}

func TestProviderError_AsMatchesThroughWrapping(t *testing.T) {
	inner := NewProviderError("openai", "gpt-4o", "down", true, nil)
	wrapped := errors.Join(errors.New("context"), inner)

	var pe *ProviderError
	assert.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, "openai", pe.Provider)
}
