// Package transcribe sends sampled clips to a speech-to-text backend and merges
// the time-anchored segments back onto the source video's timeline.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/alnah/go-chapters/internal/apierr"
	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/logger"
)

// Default retry configuration.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 20 * time.Second
)

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var _ audioTranscriber = (*openai.Client)(nil)

// OpenAITranscriber transcribes clips with Whisper, requesting verbose_json so
// every segment carries its offset inside the clip.
type OpenAITranscriber struct {
	client     audioTranscriber
	model      string
	language   string
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        *slog.Logger
}

// Option configures an OpenAITranscriber.
type Option func(*OpenAITranscriber)

// WithModel sets the transcription model. Only models that support
// verbose_json (whisper-1) return segments.
func WithModel(model string) Option {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLanguage sets a language hint (ISO 639-1 or locale).
func WithLanguage(code string) Option {
	return func(t *OpenAITranscriber) { t.language = lang.BaseCode(code) }
}

// WithRateLimit paces outgoing requests. A nil limiter disables pacing.
func WithRateLimit(l *rate.Limiter) Option {
	return func(t *OpenAITranscriber) { t.limiter = l }
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *OpenAITranscriber) { t.log = l }
}

// NewOpenAITranscriber creates a transcriber backed by client.
func NewOpenAITranscriber(client *openai.Client, opts ...Option) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

func newTranscriber(client audioTranscriber, opts ...Option) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		model:      openai.Whisper1,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe transcribes one sample and returns its segments shifted to
// absolute time, plus the language the model reported.
// Transient failures are retried with exponential backoff.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, s Sample) ([]Segment, string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: s.Path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: t.language,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			t.log.Warn("transcription retry", "clip", filepath.Base(s.Path),
				"attempt", attempt, "delay", delay, "error", err)
		},
	}

	resp, err := apierr.RetryWithBackoff(ctx, cfg, func() (openai.AudioResponse, error) {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return openai.AudioResponse{}, err
			}
		}
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, classifyError(err)
		}
		return resp, nil
	}, nil)
	if err != nil {
		return nil, "", err
	}

	segs := make([]Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segs = append(segs, Segment{Time: s.Start + seg.Start, Text: seg.Text})
	}
	// Some models ignore verbose_json and only return text.
	if len(segs) == 0 && resp.Text != "" {
		segs = append(segs, Segment{Time: s.Start, Text: resp.Text})
	}
	return segs, resp.Language, nil
}

// TranscribeBatch transcribes every sample concurrently and merges the result.
// Any single failure fails the batch. The request fan-out is not capped here;
// callers feed batches already bounded by extraction.
func (t *OpenAITranscriber) TranscribeBatch(ctx context.Context, samples []Sample) (Result, error) {
	if len(samples) == 0 {
		return Result{}, nil
	}

	perClip := make([][]Segment, len(samples))
	languages := make([]string, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range samples {
		g.Go(func() error {
			segs, language, err := t.Transcribe(gctx, s)
			if err != nil {
				return fmt.Errorf("clip %d (%s at %.1fs): %w", i, filepath.Base(s.Path), s.Start, err)
			}
			perClip[i] = segs
			languages[i] = language
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Segments: Merge(perClip), Language: t.language}
	for _, name := range languages {
		if code := lang.FromName(name); code != "" {
			res.Language = code
			break
		}
	}

	t.log.Debug("transcribed batch", "clips", len(samples), "segments", len(res.Segments),
		"language", res.Language)
	return res, nil
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classified := apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message); classified != nil {
			return classified
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		if classified := apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error()); classified != nil {
			return classified
		}
	}

	return apierr.FromContext(err)
}
