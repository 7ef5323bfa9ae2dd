package provider

import "errors"

// Error definitions shared by the provider implementations.
var (
	// ErrInvalidConfig is returned when a provider cannot be constructed
	// from the given configuration.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrNoJSONArray indicates the model output contains no JSON array.
	ErrNoJSONArray = errors.New("model output contains no JSON array")

	// ErrNoQuestions indicates the array decoded but held no usable text.
	ErrNoQuestions = errors.New("model output contains no questions")

	// ErrEmptyCompletion indicates the model returned a completion with no
	// text content.
	ErrEmptyCompletion = errors.New("model returned empty completion")
)
