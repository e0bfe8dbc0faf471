package nanodecode

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContext is returned when a forward pass would run on zero tokens
	ErrEmptyContext = errors.New("empty token context")

	// ErrInvalidLogitsShape is returned when the runtime output is not [1, seq, vocab]
	ErrInvalidLogitsShape = errors.New("invalid logits shape")
)

// ConfigurationError reports an invalid GenerationConfig or Config field.
// It is returned before any collaborator is called.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// TokenizationError reports a prompt the tokenizer could not encode
type TokenizationError struct {
	Err error
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("tokenization failed: %v", e.Err)
}

func (e *TokenizationError) Unwrap() error { return e.Err }

// RuntimeInvocationError reports a model runtime failure at a decoding step.
// Step is zero-based; TokenCount is the sequence length passed to the runtime.
type RuntimeInvocationError struct {
	Step       int
	TokenCount int
	Err        error
}

func (e *RuntimeInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed at step %d (%d tokens): %v", e.Step, e.TokenCount, e.Err)
}

func (e *RuntimeInvocationError) Unwrap() error { return e.Err }

// DetokenizationError reports a failure decoding the final sequence.
// TokenIDs holds the sequence that could not be decoded.
type DetokenizationError struct {
	TokenIDs []int
	Err      error
}

func (e *DetokenizationError) Error() string {
	return fmt.Sprintf("detokenization of %d tokens failed: %v", len(e.TokenIDs), e.Err)
}

func (e *DetokenizationError) Unwrap() error { return e.Err }
