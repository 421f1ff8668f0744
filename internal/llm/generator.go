// Package llm wraps the generative model providers used to synthesize chapters.
// Every backend implements Generator, classifies provider failures into apierr
// sentinels and retries transient failures with exponential backoff.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-chapters/internal/apierr"
	"github.com/alnah/go-chapters/internal/logger"
)

// Prompt is a single-turn request: a system instruction and the user content.
type Prompt struct {
	System string
	User   string
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Shared defaults. Chapter synthesis wants stable, low-variance output.
const (
	defaultTemperature     = 0.2
	defaultMaxInputTokens  = 100000
	defaultMaxOutputTokens = 2048
	defaultCharsPerToken   = 3

	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// settings holds the options shared by every backend.
type settings struct {
	model           string
	temperature     float32
	maxInputTokens  int
	maxOutputTokens int
	maxRetries      int
	baseDelay       time.Duration
	maxDelay        time.Duration
	log             *slog.Logger

	// DeepSeek only.
	baseURL    string
	httpClient httpDoer
}

func defaultSettings(model string) settings {
	return settings{
		model:           model,
		temperature:     defaultTemperature,
		maxInputTokens:  defaultMaxInputTokens,
		maxOutputTokens: defaultMaxOutputTokens,
		maxRetries:      defaultMaxRetries,
		baseDelay:       defaultBaseDelay,
		maxDelay:        defaultMaxDelay,
		log:             logger.Discard(),
	}
}

// Option configures a backend.
type Option func(*settings)

// WithModel overrides the provider's default model. Empty is ignored.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *settings) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// WithMaxInputTokens sets the estimated input token limit.
func WithMaxInputTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxInputTokens = n
		}
	}
}

// WithMaxOutputTokens sets the output token limit.
func WithMaxOutputTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxOutputTokens = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(s *settings) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func (s *settings) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
}

// checkLength rejects prompts whose estimated size exceeds the input limit.
func (s *settings) checkLength(p Prompt) error {
	tokens := estimateTokens(p.System) + estimateTokens(p.User)
	if tokens > s.maxInputTokens {
		return fmt.Errorf("prompt too long (%dK tokens estimated, max %dK): %w",
			tokens/1000, s.maxInputTokens/1000, ErrInputTooLong)
	}
	return nil
}

// retry runs fn under the configured backoff policy.
func (s *settings) retry(ctx context.Context, provider string, fn func() (string, error)) (string, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: s.maxRetries,
		BaseDelay:  s.baseDelay,
		MaxDelay:   s.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			s.log.Warn("generation failed, retrying",
				"provider", provider, "model", s.model,
				"attempt", attempt, "delay", delay, "error", err)
		},
	}
	return apierr.RetryWithBackoff(ctx, cfg, fn, nil)
}

// estimateTokens is a conservative character-based token estimate.
func estimateTokens(text string) int {
	return len(text) / defaultCharsPerToken
}

// New builds the Generator for provider p with the given API key.
// The returned close function releases provider resources and is never nil.
func New(ctx context.Context, p Provider, apiKey string, opts ...Option) (Generator, func() error, error) {
	noop := func() error { return nil }
	switch p.OrDefault().name {
	case ProviderOpenAI:
		g, err := NewOpenAI(apiKey, opts...)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	case ProviderDeepSeek:
		g, err := NewDeepSeek(apiKey, opts...)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	default:
		g, err := NewGemini(ctx, apiKey, opts...)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	}
}
