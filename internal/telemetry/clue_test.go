package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKvToFielders_PairsKeysWithValues(t *testing.T) {
	fielders := kvToFielders([]any{"a", 1, "b", "two"})
	assert.Len(t, fielders, 2)
}

func TestKvToFielders_IgnoresTrailingUnpairedKey(t *testing.T) {
	fielders := kvToFielders([]any{"a", 1, "dangling"})
	assert.Len(t, fielders, 1)
}

func TestKvToAttrs_StringifiesValues(t *testing.T) {
	attrs := kvToAttrs([]any{"a", "x", "b", 42})
	require := assert.New(t)
	require.Len(attrs, 2)
	require.Equal("x", attrs[0].Value.AsString())
	require.Equal("", attrs[1].Value.AsString())
}

func TestTagsToAttrs_PairsTagsAsAttributes(t *testing.T) {
	attrs := tagsToAttrs([]string{"env", "prod", "region", "us"})
	require := assert.New(t)
	require.Len(attrs, 2)
	require.Equal("env", string(attrs[0].Key))
	require.Equal("prod", attrs[0].Value.AsString())
}

func TestToString_NonStringReturnsEmpty(t *testing.T) {
	assert.Equal(t, "hello", toString("hello"))
	assert.Equal(t, "", toString(42))
}
