package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestTranscriber creates an OpenAITranscriber with a mock audioTranscriber.
func NewTestTranscriber(client audioTranscriber, opts ...Option) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

// ClassifyError exposes classifyError for unit testing.
var ClassifyError = classifyError
