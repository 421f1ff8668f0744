// Package chapters turns transcripts into a chapter list with a generative
// model. Model output is untrusted: the JSON array is located defensively,
// each element is validated on its own and the result is post-processed into
// an ordered, deduplicated, capped list that starts at 0:00.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/logger"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// snippetLength bounds how much of a malformed response is logged.
const snippetLength = 300

// Synthesizer asks a Generator for chapters.
type Synthesizer struct {
	gen llm.Generator
	log *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. Malformed model output is logged here at Warn.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSynthesizer creates a Synthesizer backed by gen.
func NewSynthesizer(gen llm.Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{gen: gen, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Candidates asks the model which segments open a chapter.
// language is an ISO 639-1 code; empty lets the model follow the transcript.
func (s *Synthesizer) Candidates(ctx context.Context, segments []transcribe.Segment, language string) ([]Candidate, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments: %w", ErrEmptyInput)
	}

	raw, err := s.generate(ctx, segmentsPrompt(segments, language))
	if err != nil {
		return nil, err
	}

	cands, err := ParseCandidates(raw)
	if err != nil {
		s.logRejected(err, raw)
		return nil, err
	}
	return cands, nil
}

// Synthesize derives the final chapter list from time-anchored segments.
func (s *Synthesizer) Synthesize(ctx context.Context, segments []transcribe.Segment, language string) ([]Chapter, error) {
	cands, err := s.Candidates(ctx, segments, language)
	if err != nil {
		return nil, err
	}

	chs, err := FromCandidates(segments, cands)
	if err != nil {
		return nil, err
	}
	s.log.Debug("chapters synthesized",
		"segments", len(segments), "candidates", len(cands), "chapters", len(chs))
	return chs, nil
}

// SynthesizeFromText derives chapters from a full transcript in one request.
// Times are taken from the model as written; there is no segment ground truth.
// An empty language is detected from the transcript when possible.
func (s *Synthesizer) SynthesizeFromText(ctx context.Context, transcript, language string) ([]Chapter, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("empty transcript: %w", ErrEmptyInput)
	}
	if language == "" {
		language, _ = lang.Detect(transcript)
	}

	raw, err := s.generate(ctx, textPrompt(transcript, language))
	if err != nil {
		return nil, err
	}

	items, err := parseTimedTitles(raw)
	if err != nil {
		s.logRejected(err, raw)
		return nil, err
	}

	chs, err := fromTimedTitles(items)
	if err != nil {
		return nil, err
	}
	s.log.Debug("chapters synthesized from text",
		"chars", len(transcript), "language", language, "chapters", len(chs))
	return chs, nil
}

// generate calls the model. A blank reply holds no JSON array, so it is
// reported as malformed like any other reply without brackets.
func (s *Synthesizer) generate(ctx context.Context, p llm.Prompt) (string, error) {
	raw, err := s.gen.Generate(ctx, p)
	if errors.Is(err, llm.ErrEmptyResponse) {
		s.log.Warn("malformed model response", "error", err)
		return "", fmt.Errorf("generate chapters: %w: %w", ErrMalformedAIResponse, err)
	}
	if err != nil {
		return "", fmt.Errorf("generate chapters: %w", err)
	}
	return raw, nil
}

func (s *Synthesizer) logRejected(err error, raw string) {
	if errors.Is(err, ErrMalformedAIResponse) {
		s.log.Warn("malformed model response", "error", err, "snippet", logger.Truncate(raw, snippetLength))
		return
	}
	s.log.Warn("model produced no usable chapters", "error", err)
}
