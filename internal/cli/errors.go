package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates a required API key environment variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrInvalidFlag indicates a flag value is out of range.
	ErrInvalidFlag = errors.New("invalid flag value")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrEmptyTranscript indicates the transcript input contains no text.
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrSetupIncomplete indicates doctor found missing binaries or keys.
	ErrSetupIncomplete = errors.New("setup incomplete")
)
