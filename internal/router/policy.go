// Package router implements the LLM Router (spec §4.3), grounded
// directly on the original nexous/llm/router.py: primary call with
// bounded retry and exponential backoff, then an ordered fallback list
// tried once each, with every attempt recorded regardless of outcome.
package router

import (
	"fmt"
	"strings"
)

// Policy is the LLM selection policy attached to a Preset (spec §3,
// §4.3). It is parsed from "provider/model" strings the way
// LLMPolicy.get_provider_model does in the original.
type Policy struct {
	Primary    string
	Retry      int
	RetryDelay float64 // seconds
	Fallback   []string
	Timeout    float64 // seconds
}

// DefaultPolicy mirrors the original's dataclass defaults.
func DefaultPolicy(primary string) Policy {
	return Policy{
		Primary:    primary,
		Retry:      3,
		RetryDelay: 1.0,
		Timeout:    60,
	}
}

// ProviderModel splits a "provider/model" spec at its first slash. A
// spec without a slash is rejected with an error.
func ProviderModel(spec string) (provider, model string, err error) {
	idx := strings.Index(spec, "/")
	if idx < 0 {
		return "", "", fmt.Errorf("router: policy spec %q is not in \"provider/model\" form", spec)
	}
	return spec[:idx], spec[idx+1:], nil
}
