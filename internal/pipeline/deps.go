package pipeline

import (
	"context"

	"github.com/alnah/go-chapters/internal/captions"
	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/extract"
	"github.com/alnah/go-chapters/internal/probe"
	"github.com/alnah/go-chapters/internal/sample"
	"github.com/alnah/go-chapters/internal/transcribe"
)

type durationProber interface {
	Duration(ctx context.Context, videoID string) (float64, error)
}

type clipExtractor interface {
	ExtractBatch(ctx context.Context, videoID string, intervals []sample.Interval, onDone func(done, total int)) ([]*extract.Clip, error)
}

type batchTranscriber interface {
	TranscribeBatch(ctx context.Context, samples []transcribe.Sample) (transcribe.Result, error)
}

type chapterSynthesizer interface {
	Synthesize(ctx context.Context, segments []transcribe.Segment, language string) ([]chapters.Chapter, error)
	SynthesizeFromText(ctx context.Context, transcript, language string) ([]chapters.Chapter, error)
}

type captionFetcher interface {
	Fetch(ctx context.Context, videoID, language string) (captions.Transcript, error)
}

var (
	_ durationProber     = (*probe.Prober)(nil)
	_ clipExtractor      = (*extract.Extractor)(nil)
	_ batchTranscriber   = (*transcribe.OpenAITranscriber)(nil)
	_ chapterSynthesizer = (*chapters.Synthesizer)(nil)
	_ captionFetcher     = (*captions.Fetcher)(nil)
)
