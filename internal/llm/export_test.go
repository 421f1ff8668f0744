package llm

import "github.com/google/generative-ai-go/genai"

// Exports for testing. These allow black-box tests to inject SDK seams
// without modifying the public API.

// ContentGenerator mirrors the Gemini model seam for test mocks.
type ContentGenerator = contentGenerator

// ChatCompleter mirrors the OpenAI client seam for test mocks.
type ChatCompleter = chatCompleter

// NewTestGemini builds a Gemini backend around a model factory.
func NewTestGemini(factory func(system string) ContentGenerator, opts ...Option) *GeminiGenerator {
	return newGemini(factory, opts...)
}

// NewTestOpenAI builds an OpenAI backend around a chat client.
func NewTestOpenAI(client ChatCompleter, opts ...Option) *OpenAIGenerator {
	return newOpenAI(client, opts...)
}

// WithHTTPClient exposes the DeepSeek HTTP client option.
var WithHTTPClient = withHTTPClient

var (
	ClassifyGeminiError = classifyGeminiError
	ClassifyOpenAIError = classifyOpenAIError
	ResponseText        = responseText
	EstimateTokens      = estimateTokens
)

// ConfigureGeminiModel applies g's generation settings to m.
func ConfigureGeminiModel(g *GeminiGenerator, m *genai.GenerativeModel, system string) *genai.GenerativeModel {
	return g.configure(m, system)
}
