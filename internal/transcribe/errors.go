package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrNoSpeechDetected indicates a batch produced zero segments across all clips.
var ErrNoSpeechDetected = errors.New("no speech detected")
