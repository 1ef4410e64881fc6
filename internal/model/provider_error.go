package model

import "fmt"

// ProviderError describes a failure returned by a Provider Adapter. It
// crosses the Router/Agent boundary carrying enough structure to decide
// retry behavior without string-matching, following the shape of
// goa-ai's runtime/agent/model.ProviderError.
type ProviderError struct {
	Provider    string
	Model       string
	Message     string
	Recoverable bool
	cause       error
}

// NewProviderError constructs a ProviderError. cause may be nil.
func NewProviderError(provider, model, message string, recoverable bool, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Model: model, Message: message, Recoverable: recoverable, cause: cause}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Provider, e.Model, e.Message)
}

// Unwrap preserves the original error chain.
func (e *ProviderError) Unwrap() error { return e.cause }
