package chapters

import "errors"

// Sentinel errors for chapter synthesis.
var (
	// ErrMalformedAIResponse indicates the model output held no parseable JSON array.
	// The offending text is logged, never returned.
	ErrMalformedAIResponse = errors.New("malformed AI response")

	// ErrNoChaptersProduced indicates the model returned an empty array, or every
	// element was dropped during validation.
	ErrNoChaptersProduced = errors.New("no chapters produced")

	// ErrEmptyInput indicates there was nothing to synthesize from.
	ErrEmptyInput = errors.New("empty synthesis input")
)
