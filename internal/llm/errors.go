package llm

import "errors"

// Sentinel errors for generative model calls.
var (
	// ErrEmptyAPIKey indicates that the API key was not provided.
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrBlocked indicates the provider refused to answer (safety filters).
	ErrBlocked = errors.New("response blocked by provider")

	// ErrInputTooLong indicates the prompt exceeds the configured token limit.
	ErrInputTooLong = errors.New("input exceeds token limit")

	// ErrInvalidProvider indicates an unknown provider name.
	ErrInvalidProvider = errors.New("invalid provider")
)
