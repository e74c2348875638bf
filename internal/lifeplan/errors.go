package lifeplan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrGeneration matches every *GenerationError.
	ErrGeneration = errors.New("generation error")
)

// GenericFailureMessage is what the user sees for any generation failure.
const GenericFailureMessage = "Failed to generate plan. Please try again later."

// FieldErrors maps each offending field to the message shown next to it.
type FieldErrors map[Field]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for f := range e {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[Field(k)]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ConfigurationError means the generation service cannot be reached because
// the environment is incomplete. Retrying does not help.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// GenerationError is the single failure kind of a generation call. Message is
// safe to show; the cause is only reachable through Unwrap.
type GenerationError struct {
	Message string
	cause   error
}

// NewGenerationError wraps cause behind the generic user-facing message.
func NewGenerationError(cause error) *GenerationError {
	return &GenerationError{Message: GenericFailureMessage, cause: cause}
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.cause }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }
