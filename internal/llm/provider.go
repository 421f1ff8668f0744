package llm

import (
	"fmt"
	"strings"
)

// Provider names accepted by ParseProvider.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

// Provider identifies a generative model backend.
// Zero value is invalid; use ParseProvider or the pre-parsed values.
type Provider struct {
	name string
}

var _ fmt.Stringer = Provider{}

// Pre-parsed providers.
var (
	Gemini   = Provider{name: ProviderGemini}
	OpenAI   = Provider{name: ProviderOpenAI}
	DeepSeek = Provider{name: ProviderDeepSeek}
)

var validProviders = map[string]bool{
	ProviderGemini:   true,
	ProviderOpenAI:   true,
	ProviderDeepSeek: true,
}

// ParseProvider validates a provider name (case-insensitive).
func ParseProvider(s string) (Provider, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if !validProviders[s] {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'gemini', 'openai' or 'deepseek'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// String returns the provider name, or "" for the zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero reports whether the provider is unset.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// OrDefault returns p, or Gemini when p is unset.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return Gemini
	}
	return p
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func (p Provider) APIKeyEnv() string {
	switch p.OrDefault().name {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p.OrDefault().name {
	case ProviderOpenAI:
		return defaultOpenAIModel
	case ProviderDeepSeek:
		return defaultDeepSeekModel
	default:
		return defaultGeminiModel
	}
}
