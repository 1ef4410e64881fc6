// Package nexerr provides the engine's typed error taxonomy.
//
// Every terminal failure the engine produces carries one of the Kind
// tags below verbatim into trace.ErrorRecord.Type (see spec §7). The
// shape mirrors goa-ai's model.ProviderError: a stable, introspectable
// error that crosses package boundaries without losing the information
// callers need to decide whether to retry.
package nexerr

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal or recorded failure. Values are carried
// verbatim into ErrorRecord.Type; they are part of the trace wire format
// and must not be renamed casually.
type Kind string

const (
	KindYAMLParse           Kind = "YAML_PARSE_ERROR"
	KindSchemaValidation    Kind = "SCHEMA_VALIDATION_ERROR"
	KindPresetNotFound      Kind = "PRESET_NOT_FOUND_ERROR"
	KindPresetLoad          Kind = "PRESET_LOAD_ERROR"
	KindDependencyCycle     Kind = "DEPENDENCY_CYCLE_ERROR"
	KindDependencyNotFound  Kind = "DEPENDENCY_NOT_FOUND_ERROR"
	KindAgentCreation       Kind = "AGENT_CREATION_ERROR"
	KindAgentError          Kind = "AGENT_ERROR"
	KindLLMAllFailed        Kind = "LLM_ALL_FAILED"
	KindToolError           Kind = "TOOL_ERROR"
	KindModelNotAllowed     Kind = "MODEL_NOT_ALLOWED_ERROR"
	KindProviderUnavailable Kind = "PROVIDER_UNAVAILABLE_ERROR"
)

// Error is the engine's typed error. Recoverable mirrors the spec's
// provider-failure recoverable flag; it is meaningless (false) for
// error kinds that are inherently terminal (schema errors, cycles).
type Error struct {
	Kind        Kind
	Agent       string
	Step        string
	Message     string
	Recoverable bool
	cause       error
}

// New constructs an Error. cause may be nil.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithAgent attaches the agent id that produced the error and returns the
// receiver for chaining.
func (e *Error) WithAgent(agentID string) *Error {
	e.Agent = agentID
	return e
}

// WithStep attaches the step id associated with the error, if any.
func (e *Error) WithStep(stepID string) *Error {
	e.Step = stepID
	return e
}

// WithRecoverable marks whether the failure is expected to succeed on retry.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap preserves the original error chain.
func (e *Error) Unwrap() error { return e.cause }

// As reports whether err's chain contains a *Error and returns it.
func As(err error) (*Error, bool) {
	var ne *Error
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
